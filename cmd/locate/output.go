package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/couchcryptid/nearby-hospitals/internal/domain"
	"github.com/couchcryptid/nearby-hospitals/internal/view"
)

type jsonFacility struct {
	domain.Facility
	Badge         view.Badge `json:"badge"`
	DistanceKm    *float64   `json:"distance_km,omitempty"`
	DirectionsURL string     `json:"directions_url"`
}

type jsonResult struct {
	Location    *domain.ResolvedLocation `json:"location"`
	Accuracy    string                   `json:"accuracy,omitempty"`
	Facilities  []jsonFacility           `json:"facilities"`
	SearchError string                   `json:"search_error,omitempty"`
}

func (a *app) print(w io.Writer, asJSON bool) error {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	return a.printLocked(w, asJSON)
}

func (a *app) printLocked(w io.Writer, asJSON bool) error {
	s := a.resolver.Snapshot()
	notice, _ := a.presenter.AccuracyNotice()
	items := a.presenter.Items()

	if asJSON {
		out := jsonResult{Location: s.Current, Accuracy: notice, Facilities: make([]jsonFacility, 0, len(items))}
		if s.SearchErr != nil {
			out.SearchError = s.SearchErr.Error()
		}
		for _, it := range items {
			out.Facilities = append(out.Facilities, jsonFacility{
				Facility:      it.Facility,
				Badge:         it.Badge,
				DistanceKm:    it.DistanceKm,
				DirectionsURL: it.DirectionsURL,
			})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	return writeText(w, s.Current, notice, items, s.SearchErr)
}

func writeText(w io.Writer, loc *domain.ResolvedLocation, notice string, items []view.ListItem, searchErr error) error {
	if loc != nil {
		fmt.Fprintf(w, "Location: %s", loc.Coordinate)
		if loc.Description != "" {
			fmt.Fprintf(w, " (%s)", loc.Description)
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Accuracy: %s. %s\n\n", loc.Tier, notice)
	}

	switch {
	case searchErr != nil:
		fmt.Fprintf(w, "Hospital search failed: %v\n", searchErr)
		return nil
	case len(items) == 0:
		fmt.Fprintln(w, view.EmptyMessage)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tTYPE\tDISTANCE\tRATING\tADDRESS")
	for i, it := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			i+1, it.Facility.Name, it.Badge, it.DistanceLabel(), it.RatingLabel(), it.Facility.Address)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	for i, it := range items {
		fmt.Fprintf(w, "%d. %s\n", i+1, it.DirectionsURL)
	}
	return nil
}
