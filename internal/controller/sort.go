package controller

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/dzmitry-papkou/engagement/internal/export"
)

// SortRecords orders records ascending by key. Two numeric values compare as
// numbers, anything else in natural order ("W2" before "W10"). The sort is
// stable and the input is not modified.
func SortRecords(records []export.Record, key string) ([]export.Record, error) {
	column, ok := resolveColumn(records, key)
	if !ok {
		return nil, fmt.Errorf("unknown column %q", key)
	}

	sorted := make([]export.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		av, _ := sorted[i].Get(column)
		bv, _ := sorted[j].Get(column)
		return lessValue(av, bv)
	})
	return sorted, nil
}

func resolveColumn(records []export.Record, key string) (string, bool) {
	if len(records) == 0 {
		return key, true
	}
	for _, k := range records[0].Keys() {
		if strings.EqualFold(k, key) {
			return k, true
		}
	}
	return "", false
}

func lessValue(a, b interface{}) bool {
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	an, aerr := strconv.ParseFloat(strings.TrimSpace(as), 64)
	bn, berr := strconv.ParseFloat(strings.TrimSpace(bs), 64)
	if aerr == nil && berr == nil {
		return an < bn
	}
	return naturalLess(as, bs)
}

// naturalLess compares digit runs by value and the rest case-insensitively.
func naturalLess(a, b string) bool {
	ar, br := []rune(a), []rune(b)
	i, j := 0, 0
	for i < len(ar) && j < len(br) {
		if unicode.IsDigit(ar[i]) && unicode.IsDigit(br[j]) {
			si := i
			for i < len(ar) && unicode.IsDigit(ar[i]) {
				i++
			}
			sj := j
			for j < len(br) && unicode.IsDigit(br[j]) {
				j++
			}
			da := strings.TrimLeft(string(ar[si:i]), "0")
			db := strings.TrimLeft(string(br[sj:j]), "0")
			if len(da) != len(db) {
				return len(da) < len(db)
			}
			if da != db {
				return da < db
			}
			continue
		}
		ca, cb := unicode.ToLower(ar[i]), unicode.ToLower(br[j])
		if ca != cb {
			return ca < cb
		}
		i++
		j++
	}
	if len(ar)-i != len(br)-j {
		return len(ar)-i < len(br)-j
	}
	return a < b
}
