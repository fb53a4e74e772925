package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rhinstaller/diskplanner/internal/actions"
	"github.com/rhinstaller/diskplanner/internal/check"
	"github.com/rhinstaller/diskplanner/internal/config"
	"github.com/rhinstaller/diskplanner/internal/device"
	"github.com/rhinstaller/diskplanner/internal/devicetree"
	"github.com/rhinstaller/diskplanner/internal/logging"
	"github.com/rhinstaller/diskplanner/internal/service"
)

var (
	configPath    string
	inventoryPath string
	verbose       bool
	useJournal    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "diskplanner",
		Short: "Plan disk partitioning layouts",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(verbose, useJournal)
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "diskplanner.toml", "path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&inventoryPath, "inventory", "inventory.toml", "path to the disk inventory file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&useJournal, "journal", false, "log to the systemd journal")

	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Configure, validate and print a partitioning plan",
		RunE:  runPlan,
	}
	planCmd.Flags().Bool("apply", false, "apply the plan to the in-memory model after validation")

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the current layout without planning changes",
		RunE:  runCheck,
	}

	rootCmd.AddCommand(planCmd, checkCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadTree() (*config.File, *devicetree.DeviceTree, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("reading configuration: %w", err)
	}
	inv, err := config.LoadInventory(inventoryPath)
	if err != nil {
		return nil, nil, fmt.Errorf("reading inventory: %w", err)
	}
	tree, err := inv.BuildTree()
	if err != nil {
		return nil, nil, fmt.Errorf("building device tree: %w", err)
	}
	return cfg, tree, nil
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, tree, err := loadTree()
	if err != nil {
		return err
	}

	method, err := cfg.Method()
	if err != nil {
		return err
	}
	strategyCfg, err := cfg.StrategyConfig()
	if err != nil {
		return err
	}

	svc := service.New()
	svc.SetConstraints(cfg.Constraints())
	for _, name := range cfg.Checker.Skip {
		svc.Checker().Skip(name)
	}
	svc.SetStorage(tree)

	session, err := svc.CreatePartitioning(method, strategyCfg)
	if err != nil {
		return err
	}
	if err := svc.Configure(session); err != nil {
		return err
	}

	report := svc.Validate(session)
	printReport(report)

	printLayout(session.Playground())
	printActions(session.Playground())

	if apply, _ := cmd.Flags().GetBool("apply"); apply {
		err := svc.Apply(context.Background(), session, &actions.NullExecutor{},
			func(step, total int, description string) {
				fmt.Printf("[%d/%d] %s\n", step, total, description)
			})
		if err != nil {
			return err
		}
		fmt.Println("plan applied")
	}

	if !report.Valid() {
		return fmt.Errorf("the planned layout is not valid")
	}
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, tree, err := loadTree()
	if err != nil {
		return err
	}

	checker := check.NewChecker()
	for _, name := range cfg.Checker.Skip {
		checker.Skip(name)
	}
	checker.Skip("bootloader")
	checker.Skip("gpt-biosboot")

	report := checker.Check(&check.State{
		Tree:        tree,
		Constraints: cfg.Constraints(),
	})
	printReport(report)
	printLayout(tree)

	if !report.Valid() {
		return fmt.Errorf("the current layout is not valid")
	}
	return nil
}

func printReport(report *check.Report) {
	for _, msg := range report.Errors {
		logrus.Error(msg)
		fmt.Println("error:", msg)
	}
	for _, msg := range report.Warnings {
		logrus.Warn(msg)
		fmt.Println("warning:", msg)
	}
	for _, msg := range report.Info {
		logrus.Info(msg)
	}
}

func printLayout(tree *devicetree.DeviceTree) {
	w := tabwriter.NewWriter(os.Stdout, 2, 8, 2, ' ', 0)
	fmt.Fprintln(w, "DEVICE\tTYPE\tSIZE\tFORMAT\tMOUNTPOINT")
	for _, d := range tree.Devices() {
		f := d.Format()
		fstype := f.Type
		if f.IsDiskLabel() {
			fstype = f.LabelType + " disklabel"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			d.Name(), d.Type(), device.HumanSize(d.Size()), fstype, f.Mountpoint)
	}
	w.Flush()
}

func printActions(tree *devicetree.DeviceTree) {
	journal := tree.Journal()
	if journal.Len() == 0 {
		return
	}
	var lines []string
	for _, a := range journal.Actions() {
		lines = append(lines, "  "+a.Describe())
	}
	fmt.Printf("scheduled actions:\n%s\n", strings.Join(lines, "\n"))
}
