package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/VelixarAi/velixar-client/internal/credential"
	"github.com/VelixarAi/velixar-client/internal/logger"
	"github.com/VelixarAi/velixar-client/internal/surface"
	"github.com/VelixarAi/velixar-client/internal/view"
)

func newLoginCmd() *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save your Velixar API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if key != "" {
				if err := credential.ValidateAPIKey(key); err != nil {
					return err
				}
			}
			return withSession(cmd, func(ctx context.Context, s *session) error {
				if key != "" {
					s.host.prefill(key)
				}
				return s.app.Commands(s.host).SetAPIKey(ctx)
			})
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "API key (prompted when omitted)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the saved API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				return s.app.Commands(s.host).ClearAPIKey(ctx)
			})
		},
	}
}

func newStoreCmd() *cobra.Command {
	var tags string
	cmd := &cobra.Command{
		Use:   "store [text...]",
		Short: "Store a memory (reads stdin when no text is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			content := strings.Join(args, " ")
			if len(args) == 0 {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				content = strings.TrimRight(string(b), "\n")
			}
			return withSession(cmd, func(ctx context.Context, s *session) error {
				s.host.setSelection(content)
				s.host.prefill(tags)
				return s.app.Commands(s.host).StoreMemory(ctx)
			})
		},
	}
	cmd.Flags().StringVar(&tags, "tags", "", "Comma-separated tags")
	return cmd
}

func newSearchCmd() *cobra.Command {
	var pick int
	var action string
	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Search memories and copy, print or open a hit",
		RunE: func(cmd *cobra.Command, args []string) error {
			var answers []string
			if len(args) > 0 {
				answers = append(answers, strings.Join(args, " "))
				if pick > 0 {
					answers = append(answers, fmt.Sprint(pick))
					switch action {
					case "copy":
						answers = append(answers, "1")
					case "insert", "print":
						answers = append(answers, "2")
					case "open":
						answers = append(answers, "3")
					case "":
					default:
						return fmt.Errorf("unknown action %q (copy, print, open)", action)
					}
				}
			}
			return withSession(cmd, func(ctx context.Context, s *session) error {
				s.host.prefill(answers...)
				return s.app.Commands(s.host).SearchMemories(ctx)
			})
		},
	}
	cmd.Flags().IntVar(&pick, "pick", 0, "Pick the Nth result (1-based) without prompting")
	cmd.Flags().StringVar(&action, "action", "", "Action for the picked result: copy, print or open")
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recent memories grouped by tier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				if err := s.app.Refresh.RefreshAll(ctx); err != nil {
					return err
				}
				return view.RenderTree(cmd.OutOrStdout(), view.Tree(s.app.Index.Groups()))
			})
		},
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <memory-id>",
		Short: "Print the full content of a memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				return s.app.Commands(s.host).InsertMemory(ctx, args[0])
			})
		},
	}
}

func newCopyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "copy <memory-id>",
		Short: "Copy the full content of a memory to the clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				return s.app.Commands(s.host).CopyMemory(ctx, args[0])
			})
		},
	}
}

func newOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <memory-id>",
		Short: "Write a memory to a markdown file and print its path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				return s.app.Commands(s.host).OpenMemory(ctx, args[0])
			})
		},
	}
}

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <memory-id> [content...]",
		Short: "Replace the content of a memory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				if len(args) > 1 {
					s.host.prefill(strings.Join(args[1:], " "))
				}
				return s.app.Commands(s.host).UpdateMemory(ctx, args[0])
			})
		},
	}
}

func newDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <memory-id>",
		Short: "Delete a memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				if yes {
					s.host.prefill("yes")
				}
				return s.app.Commands(s.host).DeleteMemory(ctx, args[0])
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show API key, API and backing store status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				s.app.Monitor.Refresh(ctx)
				return view.RenderStatus(cmd.OutOrStdout(), view.StatusRows(s.app.Monitor.Snapshot()))
			})
		},
	}
}

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Re-sync the memory index and health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				if err := s.app.Commands(s.host).Refresh(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d memories indexed\n", s.app.Index.Groups().Len())
				return nil
			})
		},
	}
}

func newPanelCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "panel",
		Short: "Serve the live search panel in the browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				if addr == "" {
					addr = s.app.Config.PanelAddr
				}
				s.app.Refresh.Start(ctx)

				srv := surface.NewServer(surface.Deps{
					Searcher:       s.app.Client,
					Actions:        s.app.Commands(s.host),
					Tree:           s.app.Index.Groups,
					Status:         s.app.Monitor.Snapshot,
					Refresh:        s.app.Refresh.RefreshAll,
					SessionOptions: s.app.SessionOptions(),
					Logger:         logger.NewTo(cmd.ErrOrStderr(), "surface").Level(s.app.Config.Level()),
				})
				fmt.Fprintf(cmd.OutOrStdout(), "Velixar panel: http://%s/\n", addr)
				return srv.ListenAndServe(ctx, addr)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from VELIXAR_PANEL_ADDR)")
	return cmd
}
