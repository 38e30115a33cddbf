package geo

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

// ErrorHeader carries a geolocation failure reported by the browser.
const ErrorHeader = "X-Geolocation-Error"

type requestLocator struct {
	r *http.Request
}

// FromRequest returns a Locator backed by the coordinate the client sent with r.
// The coordinate is read from the "lat"/"lng" query or form values. A browser side
// failure is reported through ErrorHeader or the "geo_error" value.
func FromRequest(r *http.Request) Locator {
	return &requestLocator{r: r}
}

func (l *requestLocator) Locate(ctx context.Context) (Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return Coordinate{}, &PositionError{Code: Timeout, Message: err.Error()}
	}

	code := l.r.Header.Get(ErrorHeader)
	if code == "" {
		code = l.r.FormValue("geo_error")
	}
	if code != "" {
		return Coordinate{}, parseErrorCode(code)
	}

	latStr := strings.TrimSpace(l.r.FormValue("lat"))
	lngStr := strings.TrimSpace(l.r.FormValue("lng"))
	if latStr == "" || lngStr == "" {
		return Coordinate{}, &PositionError{Code: PositionUnavailable, Message: "no coordinate supplied"}
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return Coordinate{}, &PositionError{Code: PositionUnavailable, Message: "invalid lat"}
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return Coordinate{}, &PositionError{Code: PositionUnavailable, Message: "invalid lng"}
	}

	c := Coordinate{Latitude: lat, Longitude: lng}
	if !c.Valid() {
		return Coordinate{}, &PositionError{Code: PositionUnavailable, Message: "coordinate out of range"}
	}
	return c, nil
}

func parseErrorCode(s string) *PositionError {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(PermissionDenied), "1":
		return &PositionError{Code: PermissionDenied}
	case string(Timeout), "3":
		return &PositionError{Code: Timeout}
	default:
		return &PositionError{Code: PositionUnavailable}
	}
}
