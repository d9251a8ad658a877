package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"FinAdvisor/internal/di"
	"FinAdvisor/internal/domain/models"
	"FinAdvisor/internal/services/currency"
	"FinAdvisor/internal/usecase"
	"FinAdvisor/pkg/config"
	applogger "FinAdvisor/pkg/logger"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "finadvisor",
		Short: "FinAdvisor - bilingual personal finance assistant",
		Long: `FinAdvisor answers personal finance questions in Arabic and English from the
user's own data, market tables, news and web search.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path (empty for defaults)")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newAskCmd(&configPath))
	root.AddCommand(newConvertCmd(&configPath))
	return root
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			path = ""
		}
	}
	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	return cfg, nil
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and WebSocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			app, cleanup, err := di.InitializeApp(cfg)
			if err != nil {
				return fmt.Errorf("app initialization failed: %w", err)
			}
			defer cleanup()
			return app.Run()
		},
	}
}

// askOutput is what `ask` prints.
type askOutput struct {
	Response       string   `json:"response"`
	Path           string   `json:"path"`
	Classification string   `json:"classification"`
	ToolsUsed      []string `json:"tools_used,omitempty"`
	Degraded       bool     `json:"degraded,omitempty"`
	ElapsedMs      int64    `json:"elapsed_ms"`
}

func newAskCmd(configPath *string) *cobra.Command {
	var userID, locale string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "ask [MESSAGE]",
		Short: "Run one message through the pipeline and print the result as JSON",
		Example: `  finadvisor ask "how much is gold 21 today"
  finadvisor ask --user 7f3c "كم ديوني؟"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.TrimSpace(strings.Join(args, " "))
			if message == "" {
				return fmt.Errorf("message is required")
			}
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			p, cleanup, err := di.InitializePipeline(cfg)
			if err != nil {
				return fmt.Errorf("pipeline initialization failed: %w", err)
			}
			defer cleanup()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			start := time.Now()
			res := p.Router.Handle(ctx, usecase.RouteRequest{Message: message, UserID: userID, Locale: locale})
			p.Log.Debug("ask finished", applogger.Duration("elapsed_ms", time.Since(start)))

			return printJSON(cmd, askOutput{
				Response:       res.Response,
				Path:           string(res.Path),
				Classification: string(res.Classification.Type()),
				ToolsUsed:      res.ToolsUsed,
				Degraded:       res.Degraded,
				ElapsedMs:      time.Since(start).Milliseconds(),
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id whose snapshot is loaded (anonymous when empty)")
	cmd.Flags().StringVar(&locale, "locale", "", "locale hint, e.g. ar or en")
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "overall deadline")
	return cmd
}

func newConvertCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "convert AMOUNT FROM [TO]",
		Short:   "Convert an amount using the current currency rates",
		Example: "  finadvisor convert 100 USD EGP",
		Args:    cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[0], 64)
			if err != nil || amount < 0 {
				return fmt.Errorf("invalid amount %q", args[0])
			}
			to := ""
			if len(args) == 3 {
				to = args[2]
			}
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			p, cleanup, err := di.InitializePipeline(cfg)
			if err != nil {
				return fmt.Errorf("pipeline initialization failed: %w", err)
			}
			defer cleanup()

			graph, err := p.Rates.Graph(cmd.Context())
			if err != nil {
				p.Log.Warn("converting without fresh rates", applogger.Error(err))
			}
			conv := graph.Exchange(amount, args[1], to)
			return printJSON(cmd, models.ConvertResponse{
				Conversion: conv,
				Formatted:  currency.Format(conv.Result, conv.To),
			})
		},
	}
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
