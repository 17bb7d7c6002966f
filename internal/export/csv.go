package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/doesim/internal/dynamo"
)

var ErrNoData = errors.New("export: no data")

// WriteCSV writes one row per trajectory point: time followed by every
// channel. Channels without a name are labelled x0, x1, ...
func WriteCSV(w io.Writer, res *dynamo.Result, names []string) error {
	if res.Len() == 0 {
		return ErrNoData
	}

	cw := csv.NewWriter(w)

	header := []string{"time"}
	for i := range res.States[0] {
		if i < len(names) {
			header = append(header, names[i])
		} else {
			header = append(header, fmt.Sprintf("x%d", i))
		}
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, s := range res.States {
		row := []string{strconv.FormatFloat(res.Times[i], 'f', 6, 64)}
		for _, val := range s {
			row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
