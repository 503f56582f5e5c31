// Package client is a Go client for the healthboard HTTP API.
//
//	c, err := client.New("http://127.0.0.1:5000")
//	if err != nil {
//	    return err
//	}
//	_, err = c.UpdateItem(ctx, "services", "database",
//	    client.Update{Status: client.String("up"), Message: client.String("running normally")},
//	    true)
//
// Non-2xx responses are returned as [*APIError]. Requests are never retried.
// An [Updater] binds the client to one category/item pair for code that
// only ever reports on itself.
package client
