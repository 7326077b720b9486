package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_alfred/internal/toolutil"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer one question through the full chat pipeline and print it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		question := strings.Join(args, " ")
		if err := toolutil.ValidateMessage(question); err != nil {
			return err
		}
		a := buildApp(ctx, loadConfig(), false)
		defer a.Close()
		a.gen.ReinitializeKnowledge(ctx)

		reply, err := a.gen.ProcessMessage(ctx, question, "cli-"+uuid.NewString())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "[%s]\n%s\n", reply.Mode, reply.Content)
		return nil
	},
}

var factsCmd = &cobra.Command{
	Use:   "facts",
	Short: "Load the knowledge base and print the derived facts as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a := buildApp(ctx, loadConfig(), false)
		defer a.Close()
		a.gen.ReinitializeKnowledge(ctx)

		k := a.gen.Knowledge()
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"status": k.Status(),
			"facts":  k.Facts(),
		})
	},
}
