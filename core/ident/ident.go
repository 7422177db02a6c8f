// Package ident composes the human-readable identifiers issued to school
// entities: admission numbers, staff numbers, HEMIS registration numbers and
// class roll numbers. Identifiers are unique per tenant only; two tenants may
// issue textually identical values. The package is pure: callers fetch the
// highest previously issued identifier for a prefix (repositories do a
// descending scan, valid because zero-padding keeps lexicographic and numeric
// order identical within one prefix) and the composed value is a preview —
// the storage layer's compound unique index on (tenant, identifier) is the
// race backstop.
package ident

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Category describes one identifier family: "STU-{year}-{code}-{seq}".
type Category struct {
	Prefix string
	Width  int // zero-padded sequence width
}

var (
	Student      = Category{Prefix: "STU", Width: 4}
	Staff        = Category{Prefix: "TCH", Width: 4}
	Registration = Category{Prefix: "HEMIS", Width: 5}
)

const rollWidth = 3

// PrefixFor builds the fixed prefix for one (year, tenant code) partition,
// trailing hyphen included. A tenant's sequence restarts at 1 every calendar
// year because the prefix changes with the year; that mirrors common school
// ID conventions and is intentional.
func (c Category) PrefixFor(year int, tenantCode string) string {
	return fmt.Sprintf("%s-%d-%s-", c.Prefix, year, tenantCode)
}

// Next composes the identifier following `last` within this category's
// partition. `last` is the highest identifier already issued for the prefix,
// or "" when none exists yet (sequence starts at 1).
func (c Category) Next(year int, tenantCode, last string) (string, error) {
	prefix := c.PrefixFor(year, tenantCode)
	seq, err := nextSeq(last)
	if err != nil {
		return "", errors.Wrapf(err, "parsing last %s identifier %q", c.Prefix, last)
	}
	return prefix + pad(seq, c.Width), nil
}

// NextRoll composes the next roll number within one class+section
// sub-partition: "{classSuffix}-{section}-{seq}". Both the class suffix and
// the section are required; with either missing there is no roll number and
// NextRoll returns "" without error.
func NextRoll(classSuffix, section, last string) (string, error) {
	if classSuffix == "" || section == "" {
		return "", nil
	}
	seq, err := nextSeq(last)
	if err != nil {
		return "", errors.Wrapf(err, "parsing last roll number %q", last)
	}
	return RollPrefix(classSuffix, section) + pad(seq, rollWidth), nil
}

// RollPrefix builds the fixed prefix for one class+section sub-partition,
// trailing hyphen included. Returns "" when either part is missing.
func RollPrefix(classSuffix, section string) string {
	if classSuffix == "" || section == "" {
		return ""
	}
	return classSuffix + "-" + section + "-"
}

// nextSeq parses the trailing numeric segment of `last` (the text after the
// final hyphen) and increments it. An empty `last` starts the sequence at 1.
func nextSeq(last string) (int, error) {
	if last == "" {
		return 1, nil
	}
	i := strings.LastIndexByte(last, '-')
	if i < 0 || i == len(last)-1 {
		return 0, errors.Errorf("no numeric segment in %q", last)
	}
	seq, err := strconv.Atoi(last[i+1:])
	if err != nil {
		return 0, err
	}
	return seq + 1, nil
}

func pad(seq, width int) string {
	return fmt.Sprintf("%0*d", width, seq)
}
