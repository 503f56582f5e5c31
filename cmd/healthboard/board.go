package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/healthboard/client"
)

// errNoUpdateFields is returned before any request is sent.
var errNoUpdateFields = errors.New("at least one of --status, --message, or --url must be provided")

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the board",
		Long: `Print every category and item on the board with its status, message,
URL and last update time. Statuses are colored using the server's status
vocabulary.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			p := a.printer()
			ctx := cmd.Context()

			p.Step("GET %s/api/health", c.BaseURL())
			board, err := c.Health(ctx)
			if err != nil {
				return err
			}

			// a broken vocabulary file should not hide the board
			vocab, err := c.StatusConfig(ctx)
			if err != nil {
				p.Warning("status vocabulary unavailable: %v", err)
				vocab = nil
			}

			p.JSON(board)
			p.Board(board, vocab)
			return nil
		},
	}
}

func newCreateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a category or an item",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "category NAME",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			p := a.printer()

			created, err := c.CreateCategory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if created {
				p.Success("Category '%s' created", args[0])
			} else {
				p.Warning("Category '%s' already exists", args[0])
			}
			return nil
		},
	})

	item := &cobra.Command{
		Use:   "item CATEGORY NAME",
		Short: "Create an item in a category",
		Long: `Create an item with status "unknown". With --upsert the category is
created if it does not exist.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			p := a.printer()
			upsert, _ := cmd.Flags().GetBool("upsert")

			rec, created, err := c.CreateItem(cmd.Context(), args[0], args[1], upsert)
			if err != nil {
				return err
			}
			if created {
				p.Success("Item '%s' created in category '%s'", args[1], args[0])
			} else {
				p.Warning("Item '%s' already exists in category '%s'", args[1], args[0])
			}
			p.Record(args[0], args[1], rec, nil)
			return nil
		},
	}
	item.Flags().Bool("upsert", false, "create the category if it does not exist")
	cmd.AddCommand(item)

	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove",
		Aliases: []string{"rm"},
		Short:   "Remove a category or an item",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "category NAME",
		Short: "Remove a category and all of its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			msg, err := c.DeleteCategory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.printer().Success("%s", msg)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "item CATEGORY NAME",
		Short: "Remove an item from a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			msg, err := c.DeleteItem(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			a.printer().Success("%s", msg)
			return nil
		},
	})

	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update CATEGORY ITEM",
		Short: "Change an item's status, message or URL",
		Long: `Change any of an item's status, message and URL. Fields that are not
given keep their value; pass an empty string to clear a message or URL.

With --upsert the category and item are created if they do not exist.

Example:
  healthboard update services database --status up --message "running normally"
  healthboard update ci nightly --status failing --url https://ci.example.com/42 --upsert`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := updateFromFlags(cmd)
			if err != nil {
				return err
			}
			upsert, _ := cmd.Flags().GetBool("upsert")

			c, err := a.client()
			if err != nil {
				return err
			}
			p := a.printer()

			rec, err := c.UpdateItem(cmd.Context(), args[0], args[1], u, upsert)
			if err != nil {
				return err
			}
			p.Success("Item '%s' in category '%s' updated", args[1], args[0])
			p.Record(args[0], args[1], rec, nil)
			return nil
		},
	}

	cmd.Flags().String("status", "", "new status (must be in the server's vocabulary)")
	cmd.Flags().String("message", "", "new message")
	cmd.Flags().String("url", "", "new URL")
	cmd.Flags().Bool("upsert", false, "create the category and item if they do not exist")
	return cmd
}

// updateFromFlags sets only the fields whose flags were given, so an empty
// value clears a field instead of being ignored.
func updateFromFlags(cmd *cobra.Command) (client.Update, error) {
	var u client.Update
	for name, field := range map[string]**string{
		"status":  &u.Status,
		"message": &u.Message,
		"url":     &u.URL,
	} {
		if !cmd.Flags().Changed(name) {
			continue
		}
		v, err := cmd.Flags().GetString(name)
		if err != nil {
			return client.Update{}, fmt.Errorf("--%s: %w", name, err)
		}
		*field = client.String(v)
	}
	if u.Empty() {
		return client.Update{}, errNoUpdateFields
	}
	return u, nil
}

func newSaveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Write a checkpoint of the board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			msg, err := c.Checkpoint(cmd.Context())
			if err != nil {
				return err
			}
			a.printer().Success("%s", msg)
			return nil
		},
	}
}

func newRestoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Replace the board with the last checkpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			msg, err := c.Restore(cmd.Context())
			if err != nil {
				return err
			}
			a.printer().Success("%s", msg)
			return nil
		},
	}
}

func newStatusesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "statuses",
		Short: "List the recognized statuses",
		Long: `List the statuses the server accepts. With --reload the server re-reads
its vocabulary file first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			reload, _ := cmd.Flags().GetBool("reload")

			var vocab client.Vocabulary
			if reload {
				vocab, err = c.ReloadStatusConfig(cmd.Context())
			} else {
				vocab, err = c.StatusConfig(cmd.Context())
			}
			if err != nil {
				return err
			}

			p := a.printer()
			p.JSON(vocab)
			p.Statuses(vocab)
			return nil
		},
	}
	cmd.Flags().Bool("reload", false, "reload the vocabulary file before listing")
	return cmd
}
