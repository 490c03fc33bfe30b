package main

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"welfare-advisor/internal/domain"
)

const shutdownTimeout = 5 * time.Second

var envFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "advisor",
		Short:        "Chat with the welfare benefit recommender",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file read before the environment")
	root.AddCommand(newChatCmd(), newLoginCmd(), newRegisterCmd(), newLogoutCmd())
	return root
}

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), cmd, func(ctx context.Context, a *app) error {
				a.board.OnMarkerSelect(func(it domain.RecommendationItem) {
					a.chat.OpenDetail(ctx, it)
				})

				refreshCtx, cancelRefresh := context.WithCancel(ctx)
				var wg sync.WaitGroup
				wg.Add(1)
				go func() {
					defer wg.Done()
					a.chat.RefreshLocations(refreshCtx)
				}()
				defer wg.Wait()
				defer cancelRefresh()

				err := a.handler.Run(ctx, cmd.InOrStdin())
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		},
	}
}

func newLoginCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "login [name]",
		Short: "Sign in by name or by user id",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(strings.Join(args, " "))
			if name == "" && id == "" {
				return errors.New("a name or --id is required")
			}
			return withApp(cmd.Context(), cmd, func(ctx context.Context, a *app) error {
				return a.handler.Login(ctx, name, domain.UserID(id))
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "sign in with an existing user id")
	return cmd
}

func newRegisterCmd() *cobra.Command {
	var in domain.RegisterUserInput
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new user and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), cmd, func(ctx context.Context, a *app) error {
				return a.handler.Register(ctx, in)
			})
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "user name")
	cmd.Flags().IntVar(&in.Age, "age", 0, "age")
	cmd.Flags().StringVar(&in.Residence, "residence", "", "city or district of residence")
	cmd.Flags().StringArrayVar(&in.BaseTags, "tag", nil, "profile tag, repeatable")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), cmd, func(ctx context.Context, a *app) error {
				return a.handler.Logout(ctx)
			})
		},
	}
}

func withApp(ctx context.Context, cmd *cobra.Command, run func(context.Context, *app) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, envFile, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	runErr := run(ctx, a)

	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return errors.Join(runErr, a.close(closeCtx))
}
