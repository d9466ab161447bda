// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/fides-app/fides-places/internal/geo"
)

const (
	maxNameWidth    = 40
	maxAddressWidth = 60
	columnGap       = "  "
)

// Table writes the result as an aligned table, nearest place first. Widths are measured in
// terminal cells so accented and wide names line up.
func (p *Presenter) Table(w io.Writer, res Result) error {
	buf := bufio.NewWriter(w)
	if len(res.Places) == 0 {
		fmt.Fprintln(buf, p.localizer.Getf(nothingFound, geo.FormatDistance(float64(res.Radius)), res.Origin))
		return buf.Flush()
	}

	rows := make([][]string, 0, len(res.Places)+1)
	rows = append(rows, []string{"#", p.loc("name"), p.loc("distance"), p.loc("address")})
	for i, place := range res.Places {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			runewidth.Truncate(place.Name, maxNameWidth, "…"),
			place.DistanceFormatted,
			runewidth.Truncate(place.Address, maxAddressWidth, "…"),
		})
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for col, cell := range row {
			widths[col] = max(widths[col], runewidth.StringWidth(cell))
		}
	}

	fmt.Fprintln(buf, p.localizer.Getf(titleNear, res.Origin))
	fmt.Fprintln(buf)
	for _, row := range rows {
		cells := make([]string, len(row))
		for col, cell := range row {
			if col == len(row)-1 {
				cells[col] = cell
				continue
			}
			cells[col] = runewidth.FillRight(cell, widths[col])
		}
		fmt.Fprintln(buf, strings.TrimRight(strings.Join(cells, columnGap), " "))
	}
	return buf.Flush()
}
