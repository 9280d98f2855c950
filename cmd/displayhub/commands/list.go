package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/displayhub/displayhub/internal/config"
	"github.com/displayhub/displayhub/internal/display"
	"github.com/displayhub/displayhub/internal/registry"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List logical displays",
	Long: `List all logical displays known to the display authority.

This command connects to the X server, enumerates the connected outputs
and prints one line per display.`,
	Example: `  # List displays in table format (default)
  displayhub list

  # List displays in JSON format
  displayhub list --format json

  # Look up a single display by id
  displayhub list --id 68`,
	RunE: runList,
}

var (
	listFormat string
	listID     int
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "output format (table or json)")
	listCmd.Flags().IntVar(&listID, "id", -1, "show only the display with this id")
}

func runList(cmd *cobra.Command, args []string) error {
	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg := configMgr.Get()

	auth, err := newAuthority(cfg)
	if err != nil {
		return err
	}
	defer auth.Close()

	reg := registry.New(auth, cfg.Compat.Params())

	if listID >= 0 {
		d, ok := reg.GetDisplay(listID)
		if !ok {
			return fmt.Errorf("no such display: %d", listID)
		}
		return printDisplays([]display.Info{d.Info()})
	}

	displays := reg.GetDisplays()
	infos := make([]display.Info, 0, len(displays))
	for _, d := range displays {
		infos = append(infos, d.Info())
	}
	return printDisplays(infos)
}

func printDisplays(infos []display.Info) error {
	switch listFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(infos)
	case "table":
		return printDisplayTable(infos)
	default:
		return fmt.Errorf("unsupported format: %s (use 'table' or 'json')", listFormat)
	}
}

func printDisplayTable(infos []display.Info) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tNAME\tGEOMETRY\tREFRESH\tDPI\tPRIMARY")
	fmt.Fprintln(w, "--\t----\t--------\t-------\t---\t-------")

	for _, info := range infos {
		primary := "No"
		if info.Primary {
			primary = "Yes"
		}
		g := info.Geometry
		fmt.Fprintf(w, "%d\t%s\t%dx%d+%d+%d\t%.1fHz\t%d\t%s\n",
			info.ID, info.Name, g.Width, g.Height, g.X, g.Y, info.RefreshHz, info.DensityDPI, primary)
	}

	return nil
}
