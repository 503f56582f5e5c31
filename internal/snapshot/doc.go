// Package snapshot checkpoints the board to durable storage and restores it.
//
// The persisted document mirrors the board exactly:
//
//	{
//	    "services": {
//	        "database": {
//	            "status": "passing",
//	            "message": "",
//	            "url": "",
//	            "last_updated": "2023-01-01T12:00:00.000000Z"
//	        }
//	    }
//	}
//
// [Encode] and [Decode] convert between the board and this document.
// A [Storage] holds a single document; [FileStorage], [RedisStorage] and
// [SQLiteStorage] are provided. [Manager] ties a store to a storage and
// performs checkpoint and restore while holding the store's exclusive lock.
package snapshot
