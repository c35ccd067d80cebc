// Package filter parses query-string options for the API and provides
// generic slice filtering.
package filter

import (
	"net/url"
	"strings"
)

// Options represents filter and sort options for an API request.
// Filters use the filter[name]=value form; repeated or comma-separated
// values are both accepted.
type Options struct {
	Filters map[string][]string
	Sort    []string
}

// NewOptions parses query parameters and creates filter options.
func NewOptions(query url.Values) *Options {
	options := &Options{
		Filters: make(map[string][]string),
		Sort:    []string{},
	}

	for key, values := range query {
		if strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "]") {
			filterName := key[7 : len(key)-1]
			for _, value := range values {
				for _, v := range strings.Split(value, ",") {
					if v = strings.TrimSpace(v); v != "" {
						options.Filters[filterName] = append(options.Filters[filterName], v)
					}
				}
			}
		}
	}

	if sortParam, ok := query["sort"]; ok && len(sortParam) > 0 {
		for _, field := range strings.Split(sortParam[0], ",") {
			if field = strings.TrimSpace(field); field != "" {
				options.Sort = append(options.Sort, field)
			}
		}
	}

	return options
}

// HasFilter checks if a specific filter exists.
func (o *Options) HasFilter(name string) bool {
	_, exists := o.Filters[name]
	return exists
}

// GetFilter returns the value(s) for a specific filter.
func (o *Options) GetFilter(name string) []string {
	return o.Filters[name]
}

// MatchesFilter reports whether value is one of the filter's values.
func (o *Options) MatchesFilter(name, value string) bool {
	for _, v := range o.Filters[name] {
		if v == value {
			return true
		}
	}
	return false
}

// HasSort checks if sorting is requested.
func (o *Options) HasSort() bool {
	return len(o.Sort) > 0
}

// GetSort returns the sort fields.
func (o *Options) GetSort() []string {
	return o.Sort
}

// FilterFunc is a generic filter function type.
type FilterFunc[T any] func(item T) bool

// Filter applies a filter function to a slice of items.
func Filter[T any](items []T, fn FilterFunc[T]) []T {
	filtered := make([]T, 0, len(items))
	for _, item := range items {
		if fn(item) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
