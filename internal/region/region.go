// Package region maps Swiss postal codes (PLZ) to cantons and KVG premium regions.
package region

import (
	"errors"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrInvalidPLZ = errors.New("plz must be four digits between 1000 and 9699")
	ErrUnknownPLZ = errors.New("plz not assigned to a canton")
)

// Region is the premium-relevant location of an insured person.
type Region struct {
	PLZ           string `json:"plz"`
	Canton        string `json:"canton"`
	PremiumRegion int    `json:"premium_region"`
}

// Code renders the region the way premium tables key it, e.g. "ZH-1".
func (r Region) Code() string {
	return r.Canton + "-" + strconv.Itoa(r.PremiumRegion)
}

type plzRange struct {
	from, to int
	canton   string
	region   int
}

// ranges must stay sorted by from and non-overlapping.
var ranges = []plzRange{
	{1000, 1199, "VD", 1},
	{1200, 1299, "GE", 1},
	{1300, 1499, "VD", 2},
	{1500, 1599, "FR", 2},
	{1600, 1699, "FR", 2},
	{1700, 1799, "FR", 1},
	{1800, 1899, "VD", 1},
	{1900, 1999, "VS", 1},
	{2000, 2199, "NE", 1},
	{2300, 2499, "NE", 1},
	{2500, 2599, "BE", 2},
	{2600, 2799, "BE", 3},
	{2800, 2999, "JU", 1},
	{3000, 3099, "BE", 1},
	{3100, 3699, "BE", 2},
	{3700, 3899, "BE", 3},
	{3900, 3999, "VS", 2},
	{4000, 4099, "BS", 1},
	{4100, 4199, "BL", 1},
	{4200, 4299, "SO", 1},
	{4300, 4399, "AG", 1},
	{4400, 4499, "BL", 2},
	{4500, 4799, "SO", 1},
	{4800, 4899, "AG", 1},
	{4900, 4999, "BE", 3},
	{5000, 5799, "AG", 1},
	{6000, 6054, "LU", 1},
	{6055, 6079, "OW", 1},
	{6080, 6299, "LU", 2},
	{6300, 6349, "ZG", 1},
	{6350, 6359, "LU", 3},
	{6360, 6399, "NW", 1},
	{6400, 6459, "SZ", 1},
	{6460, 6499, "UR", 1},
	{6500, 6799, "TI", 1},
	{6800, 6999, "TI", 2},
	{7000, 7099, "GR", 1},
	{7100, 7499, "GR", 2},
	{7500, 7799, "GR", 3},
	{8000, 8099, "ZH", 1},
	{8100, 8199, "ZH", 2},
	{8200, 8299, "SH", 1},
	{8300, 8499, "ZH", 3},
	{8500, 8599, "TG", 1},
	{8600, 8749, "ZH", 2},
	{8750, 8799, "GL", 1},
	{8800, 8839, "ZH", 2},
	{8840, 8899, "SZ", 1},
	{8900, 8999, "ZH", 2},
	{9000, 9049, "SG", 1},
	{9050, 9059, "AI", 1},
	{9060, 9119, "AR", 1},
	{9120, 9484, "SG", 2},
	// 9485-9498 is Liechtenstein, outside KVG.
	{9499, 9499, "SG", 2},
	{9500, 9599, "TG", 1},
	{9600, 9699, "SG", 3},
}

// Lookup validates plz and resolves its canton and premium region.
func Lookup(plz string) (Region, error) {
	plz = strings.TrimSpace(plz)
	if len(plz) != 4 {
		return Region{}, ErrInvalidPLZ
	}
	for _, r := range plz {
		if r < '0' || r > '9' {
			return Region{}, ErrInvalidPLZ
		}
	}
	n, _ := strconv.Atoi(plz)
	if n < 1000 || n > 9699 {
		return Region{}, ErrInvalidPLZ
	}

	i := sort.Search(len(ranges), func(i int) bool { return ranges[i].to >= n })
	if i == len(ranges) || ranges[i].from > n {
		return Region{}, ErrUnknownPLZ
	}
	r := ranges[i]
	return Region{PLZ: plz, Canton: r.canton, PremiumRegion: r.region}, nil
}

// Cantons returns the distinct canton codes covered by the table, sorted.
func Cantons() []string {
	seen := make(map[string]struct{}, 26)
	for _, r := range ranges {
		seen[r.canton] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
