package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/firecorners/cornerd/internal/actions"
	"github.com/firecorners/cornerd/internal/domain"
	"github.com/firecorners/cornerd/internal/infra"
	"github.com/firecorners/cornerd/internal/usecase"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured actions",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var testCmd = &cobra.Command{
	Use:   "test [corner]",
	Short: "Validate configured actions",
	Long: `Validates every configured action without running it.
With --execute, runs the actions of the given corner (or all corners) in
this process, the same way the daemon would.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTest,
}

var testExecute bool

func init() {
	testCmd.Flags().BoolVar(&testExecute, "execute", false, "Run the actions instead of only validating them")
}

// readDocument reads the config without creating it.
func readDocument(store domain.ConfigStore) (*domain.Document, error) {
	doc, err := store.Read()
	if errors.Is(err, os.ErrNotExist) {
		fmt.Printf("No config at %s yet; showing defaults.\n", store.Path())
		return domain.DefaultDocument(), nil
	}
	return doc, err
}

func runList(cmd *cobra.Command, args []string) error {
	paths := resolvePaths()
	doc, err := readDocument(infra.NewFileConfigStore(paths.ConfigPath, zap.NewNop()))
	if err != nil {
		return err
	}

	registry := actions.NewRegistry()
	var rows [][]string
	for _, corner := range domain.AllCorners {
		for i, a := range doc.Actions(corner) {
			valid := "ok"
			if _, err := registry.Validate(a); err != nil {
				valid = err.Error()
			}
			rows = append(rows, []string{corner.String(), strconv.Itoa(i + 1), a.Type.Label(), a.Value, valid})
		}
	}

	fmt.Printf("Config: %s\n", paths.ConfigPath)
	if len(rows) == 0 {
		fmt.Println("No actions configured.")
	} else {
		fmt.Println(renderTable(
			[]string{"Corner", "#", "Type", "Value", "Check"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
		))
	}

	s := doc.Settings
	fmt.Println(renderKV([][]string{
		{"Threshold", fmt.Sprintf("%d px", s.Threshold)},
		{"Dwell", fmt.Sprintf("%gs", float64(s.Dwell))},
		{"Cooldown", fmt.Sprintf("%gs", float64(s.Cooldown))},
		{"Launch at login", strconv.FormatBool(s.LaunchAtLogin)},
	}))
	return nil
}

func runTest(cmd *cobra.Command, args []string) error {
	paths := resolvePaths()
	logger := zap.NewNop()
	doc, err := readDocument(infra.NewFileConfigStore(paths.ConfigPath, logger))
	if err != nil {
		return err
	}

	corners := domain.AllCorners
	if len(args) == 1 {
		c, err := domain.ParseCorner(args[0])
		if err != nil {
			return err
		}
		corners = []domain.Corner{c}
	}

	registry := actions.NewRegistry()
	if !testExecute {
		scoped := domain.DefaultDocument()
		scoped.Settings = doc.Settings
		for _, c := range corners {
			scoped.SetActions(c, doc.Actions(c))
		}
		report, err := usecase.Preflight(scoped, registry, logger)
		fmt.Printf("Checked %d action(s), %d invalid\n", report.Checked, len(report.Invalid))
		for _, r := range report.Invalid {
			fmt.Printf("  %s %s %q: %s\n", r.Corner, r.Action.Type.Label(), r.Action.Value, r.Message)
		}
		return err
	}

	executor := usecase.NewExecutor(registry, infra.NewOSActionRunner(logger), logger)
	var rows [][]string
	failed := 0
	for _, c := range corners {
		for _, r := range executor.ExecuteAll(context.Background(), c, doc.Actions(c)) {
			outcome := "ok"
			if !r.Success {
				failed++
				outcome = r.Message
			}
			rows = append(rows, []string{c.String(), r.Action.Type.Label(), r.Action.Value, outcome, strconv.FormatInt(r.DurationMs, 10)})
		}
	}
	if len(rows) == 0 {
		fmt.Println("No actions to run.")
		return nil
	}
	fmt.Println(renderTable(
		[]string{"Corner", "Type", "Value", "Result", "ms"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	))
	if failed > 0 {
		return fmt.Errorf("%d action(s) failed", failed)
	}
	return nil
}
