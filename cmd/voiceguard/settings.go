package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"voiceguard/internal/config"
	"voiceguard/internal/host"
	"voiceguard/internal/modules/commands"
	"voiceguard/internal/modules/permissions"
	"voiceguard/internal/settings"
	"voiceguard/internal/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// openSettings opens the configured settings backend without a Discord
// session. The returned function releases everything it opened.
func openSettings() (settings.Store, func(), error) {
	path := configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}

	var store *storage.Store
	if cfg.Settings.Backend == "sqlite" {
		store, err = storage.New(cfg.DatabasePath)
		if err != nil {
			return nil, nil, err
		}
		if err := store.Migrate(); err != nil {
			store.Close()
			return nil, nil, err
		}
	}

	kv, closeKV, err := settings.Open(context.Background(), cfg.Settings, store)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, nil, err
	}
	return kv, func() {
		closeKV()
		if store != nil {
			store.Close()
		}
	}, nil
}

func userArg(value string) (string, error) {
	id, ok := commands.ParseMention(value)
	if !ok {
		return "", fmt.Errorf("invalid user %q", value)
	}
	return id, nil
}

func permsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "perms",
		Short: "Edit moderator permissions",
	}

	withStore := func(fn func(cmd *cobra.Command, store *permissions.Store, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			kv, closeKV, err := openSettings()
			if err != nil {
				return err
			}
			defer closeKV()
			notifier := host.NotifierFunc(func(text string) {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), text)
			})
			return fn(cmd, permissions.NewStore(kv, notifier, zap.NewNop()), args)
		}
	}

	change := func(use, short string, apply func(store *permissions.Store, userID string, perm permissions.Permission) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <user> <permission>",
			Short: short,
			Args:  cobra.ExactArgs(2),
			RunE: withStore(func(cmd *cobra.Command, store *permissions.Store, args []string) error {
				userID, err := userArg(args[0])
				if err != nil {
					return err
				}
				perm, ok := permissions.Parse(args[1])
				if !ok {
					return fmt.Errorf("unknown permission %q", args[1])
				}
				if err := apply(store, userID, perm); err != nil {
					return err
				}
				perms, _ := store.Permissions(userID)
				printf(cmd, "%s: %s\n", userID, permissions.Join(perms))
				return nil
			}),
		}
	}

	cmd.AddCommand(
		change("grant", "Grant a permission", (*permissions.Store).Grant),
		change("revoke", "Revoke a permission", (*permissions.Store).Revoke),
		change("toggle", "Toggle a permission", (*permissions.Store).Toggle),
		&cobra.Command{
			Use:   "toggle-all <user>",
			Short: "Grant every permission, or clear them all",
			Args:  cobra.ExactArgs(1),
			RunE: withStore(func(cmd *cobra.Command, store *permissions.Store, args []string) error {
				userID, err := userArg(args[0])
				if err != nil {
					return err
				}
				if err := store.ToggleAll(userID); err != nil {
					return err
				}
				perms, _ := store.Permissions(userID)
				printf(cmd, "%s: %s\n", userID, permissions.Join(perms))
				return nil
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List moderators",
			Args:  cobra.NoArgs,
			RunE: withStore(func(cmd *cobra.Command, store *permissions.Store, args []string) error {
				assignment := store.Assignments()
				ids := make([]string, 0, len(assignment))
				for id := range assignment {
					ids = append(ids, id)
				}
				sort.Strings(ids)
				for _, id := range ids {
					printf(cmd, "%s: %s\n", id, permissions.Join(assignment[id]))
				}
				return nil
			}),
		},
	)
	return cmd
}

func blockCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "block",
		Short: "Edit the voice block list",
	}

	withList := func(fn func(cmd *cobra.Command, list *permissions.BlockList, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			kv, closeKV, err := openSettings()
			if err != nil {
				return err
			}
			defer closeKV()
			return fn(cmd, permissions.NewBlockList(kv), args)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <user>",
			Short: "Block a user",
			Args:  cobra.ExactArgs(1),
			RunE: withList(func(cmd *cobra.Command, list *permissions.BlockList, args []string) error {
				userID, err := userArg(args[0])
				if err != nil {
					return err
				}
				return list.Block(userID)
			}),
		},
		&cobra.Command{
			Use:   "remove <user>",
			Short: "Unblock a user",
			Args:  cobra.ExactArgs(1),
			RunE: withList(func(cmd *cobra.Command, list *permissions.BlockList, args []string) error {
				userID, err := userArg(args[0])
				if err != nil {
					return err
				}
				return list.Unblock(userID)
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List blocked users",
			Args:  cobra.NoArgs,
			RunE: withList(func(cmd *cobra.Command, list *permissions.BlockList, args []string) error {
				for _, id := range list.List() {
					printf(cmd, "%s\n", id)
				}
				return nil
			}),
		},
	)
	return cmd
}
