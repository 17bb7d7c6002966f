package viz

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/san-kum/doesim/internal/experiment"
	"github.com/san-kum/doesim/internal/factorial"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// WriteItems prints the items in their current order with one column per
// design factor.
func WriteItems(w io.Writer, items []experiment.Item, factors []factorial.Factor) error {
	tw := newTable(w)

	header := []string{"RUN", "PLACEMENT"}
	for _, f := range factors {
		header = append(header, strings.ToUpper(f.Name))
	}
	fmt.Fprintln(tw, strings.Join(append(header, "S", "SAT", "EFFORT"), "\t"))

	for _, it := range items {
		cells := []string{strconv.Itoa(it.Run), placementString(it.Placement)}
		for _, f := range factors {
			v, _ := it.Params.Get(f.Name)
			cells = append(cells, fmt.Sprintf("%.3f", v))
		}
		cells = append(cells,
			fmt.Sprintf("%.6f", it.S),
			fmt.Sprintf("%.3f", it.Metrics["saturation"]),
			fmt.Sprintf("%.4f", it.Metrics["effort"]),
		)
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}

	return tw.Flush()
}

// WritePlacements prints the placements in generation order.
func WritePlacements(w io.Writer, placements []factorial.Placement) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "RUN\tPLACEMENT")
	for i, p := range placements {
		fmt.Fprintf(tw, "%d\t%s\n", i+1, placementString(p))
	}
	return tw.Flush()
}

// WriteRegression prints b0..bm. Coefficient i>0 belongs to factors[i-1].
func WriteRegression(w io.Writer, reg *factorial.Regression, factors []factorial.Factor) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "TERM\tCOEFFICIENT")

	for i, c := range reg.Coefficients {
		term := "b0"
		if i > 0 {
			term = fmt.Sprintf("b%d", i)
			if i-1 < len(factors) {
				term += " (" + factors[i-1].Name + ")"
			}
		}
		fmt.Fprintf(tw, "%s\t%+.6f\n", term, c)
	}
	fmt.Fprintf(tw, "R²\t%.4f\n", reg.RSquared)

	return tw.Flush()
}

// placementString joins levels without a separator unless a level needs
// more than one digit.
func placementString(p factorial.Placement) string {
	sep := ""
	for _, level := range p {
		if level > 9 {
			sep = ","
		}
	}

	parts := make([]string, len(p))
	for i, level := range p {
		parts[i] = strconv.Itoa(level)
	}
	return strings.Join(parts, sep)
}

// WriteSummary prints one row per channel summary.
func WriteSummary(w io.Writer, summaries []ChannelSummary) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "CHANNEL\tMIN\tMAX\tFINAL")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%.6g\t%.6g\t%.6g\n", s.Name, s.Min, s.Max, s.Final)
	}
	return tw.Flush()
}
