package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stwalsh4118/agristat/internal/location"
	"github.com/stwalsh4118/agristat/internal/models"
	"github.com/stwalsh4118/agristat/internal/provider"
	"github.com/stwalsh4118/agristat/internal/tabular"
)

// maxReportedProblems caps the problems printed; the total is always shown.
const maxReportedProblems = 20

type validateOptions struct {
	dir       string
	format    string
	locations string
}

// problem is one record that is inconsistent with the hierarchy or with the
// farmers table.
type problem struct {
	table  string
	id     int
	reason string
}

func (p problem) String() string {
	return fmt.Sprintf("%s id %d: %s", p.table, p.id, p.reason)
}

func newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a table directory the server would load in file mode",
		Long: `Loads the four tables exactly as DATA_MODE=file does, prints their
sizes and reports records whose location is not part of the hierarchy or
whose farmer_id does not match any farmer. Exits non-zero when any table
fails to load or any problem is found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.dir, "dir", "data", "Directory holding the tables")
	flags.StringVar(&opts.format, "format", tabular.FormatCSV, "Table format: csv or xlsx")
	flags.StringVar(&opts.locations, "locations", "", "YAML locations file (defaults to the built-in hierarchy)")

	return cmd
}

func runValidate(cmd *cobra.Command, opts *validateOptions) error {
	hierarchy, err := loadHierarchy(opts.locations)
	if err != nil {
		return err
	}

	p := provider.NewFile(opts.dir, opts.format)
	ds, err := p.Load(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Loaded %s tables from %s\n", opts.format, opts.dir)
	printCounts(cmd, ds)

	problems := checkDataset(ds, hierarchy)
	if len(problems) == 0 {
		fmt.Fprintln(out, "No problems found")
		return nil
	}

	for i, pr := range problems {
		if i == maxReportedProblems {
			fmt.Fprintf(out, "  ... and %d more\n", len(problems)-maxReportedProblems)
			break
		}
		fmt.Fprintf(out, "  %s\n", pr)
	}
	return fmt.Errorf("found %d problems", len(problems))
}

// checkDataset lists duplicate ids, locations outside the hierarchy and
// child records whose farmer_id matches no farmer.
func checkDataset(ds *models.Dataset, hierarchy *location.Hierarchy) []problem {
	var problems []problem

	farmerIDs := make(map[int]struct{}, len(ds.Farmers))
	for _, f := range ds.Farmers {
		if _, dup := farmerIDs[f.ID]; dup {
			problems = append(problems, problem{tabular.FarmersTable, f.ID, "duplicate id"})
		}
		farmerIDs[f.ID] = struct{}{}
		problems = appendLocationProblem(problems, hierarchy, tabular.FarmersTable, f.ID, f.Location)
	}

	checkChild := func(table string, id, farmerID int, loc location.Location) {
		problems = appendLocationProblem(problems, hierarchy, table, id, loc)
		if _, ok := farmerIDs[farmerID]; !ok {
			problems = append(problems, problem{table, id, fmt.Sprintf("farmer_id %d does not exist", farmerID)})
		}
	}
	for _, c := range ds.Crops {
		checkChild(tabular.CropsTable, c.ID, c.FarmerID, c.Location)
	}
	for _, l := range ds.Livestock {
		checkChild(tabular.LivestockTable, l.ID, l.FarmerID, l.Location)
	}
	for _, a := range ds.Aquaculture {
		checkChild(tabular.AquacultureTable, a.ID, a.FarmerID, a.Location)
	}

	return problems
}

func appendLocationProblem(problems []problem, h *location.Hierarchy, table string, id int, loc location.Location) []problem {
	if h.Contains(loc) {
		return problems
	}
	return append(problems, problem{
		table:  table,
		id:     id,
		reason: fmt.Sprintf("location %s / %s / %s is not in the hierarchy", loc.County, loc.Subcounty, loc.Ward),
	})
}
