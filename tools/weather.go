package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/isdmx/toolbelt/config"
)

// weatherDescriptions maps WMO weather interpretation codes to text
var weatherDescriptions = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	71: "Slight snowfall",
	73: "Moderate snowfall",
	75: "Heavy snowfall",
	80: "Rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

type geocodingResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Country   string  `json:"country"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

type forecastResponse struct {
	CurrentWeather struct {
		Temperature float64 `json:"temperature"`
		WindSpeed   float64 `json:"windspeed"`
		WeatherCode int     `json:"weathercode"`
	} `json:"current_weather"`
}

// Weather implements the get_weather tool using the Open-Meteo APIs
type Weather struct {
	logger       *zap.Logger
	client       HTTPDoer
	geocodingURL string
	forecastURL  string
}

// WeatherOption defines a functional option for Weather
type WeatherOption func(*Weather)

// WithWeatherHTTPDoer sets the HTTPDoer for Weather
func WithWeatherHTTPDoer(client HTTPDoer) WeatherOption {
	return func(w *Weather) {
		w.client = client
	}
}

// NewWeather creates a new Weather tool
func NewWeather(logger *zap.Logger, cfg *config.Config, opts ...WeatherOption) *Weather {
	w := &Weather{
		logger:       logger,
		client:       newHTTPClient(cfg.WeatherTimeout()),
		geocodingURL: cfg.Weather.GeocodingURL,
		forecastURL:  cfg.Weather.ForecastURL,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Lookup resolves a city name and returns a one-line description of its
// current weather
func (w *Weather) Lookup(ctx context.Context, city string) (string, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return "", fmt.Errorf("city must not be empty")
	}

	geoURL := fmt.Sprintf("%s?name=%s&count=1", w.geocodingURL, url.QueryEscape(city))
	var geo geocodingResponse
	if err := getJSON(ctx, w.client, geoURL, &geo); err != nil {
		return "", fmt.Errorf("geocoding lookup failed: %w", err)
	}
	if len(geo.Results) == 0 {
		return "", fmt.Errorf("unknown city: %s", city)
	}
	place := geo.Results[0]

	forecastURL := fmt.Sprintf("%s?latitude=%.4f&longitude=%.4f&current_weather=true",
		w.forecastURL, place.Latitude, place.Longitude)
	var forecast forecastResponse
	if err := getJSON(ctx, w.client, forecastURL, &forecast); err != nil {
		return "", fmt.Errorf("forecast lookup failed: %w", err)
	}

	current := forecast.CurrentWeather
	description, ok := weatherDescriptions[current.WeatherCode]
	if !ok {
		description = fmt.Sprintf("Weather code %d", current.WeatherCode)
	}

	w.logger.Debug("weather lookup completed",
		zap.String("city", place.Name),
		zap.Float64("temperature", current.Temperature))

	return fmt.Sprintf("%s in %s, %s: %.1f°C, wind %.1f km/h",
		description, place.Name, place.Country, current.Temperature, current.WindSpeed), nil
}
