package planner

import (
	"net/url"
	"strconv"
	"strings"

	"roadtrip/apiclient"
)

const fetchLimit = 20

// RequestFor picks the backend endpoint and parameters for a tab fetch.
func RequestFor(category Category, name, search string) (string, url.Values) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(fetchLimit))
	if s := strings.TrimSpace(search); s != "" {
		params.Set("search", s)
	}

	var path string
	switch category {
	case CategoryHotels:
		path = apiclient.PathHotels
	case CategoryRestaurants:
		path = apiclient.PathRestaurants
	case CategoryBars:
		path = apiclient.PathBars
	case CategoryEvents:
		path = apiclient.PathEnjoy
	case CategoryTransport:
		path = apiclient.PathTravel
	default:
		path = apiclient.PathSearch
	}

	switch category {
	case CategoryHotels, CategoryRestaurants, CategoryBars:
		params.Set("location", name)
	default:
		params.Set("locality", name)
	}
	return path, params
}
