// Package config loads the server configuration from config.yaml.
//
// Config fields:
//   - Server.HTTPPort   — port for the JSON API, WebSocket stream and
//     Prometheus metrics (default 8050)
//   - Server.Auth.Mode  — "apikey" or "none"
//   - Server.Auth.KeyEnv — environment variable holding the expected API key
//   - Server.Auth.Header — HTTP header the key is read from (default "x-api-key")
//   - Data.Path         — path of the COVID-19 source CSV
//     (default "Covid_Analysis_Data.csv")
//   - Data.Watch        — reload the table when the source file changes
//     (default true)
//   - Stream.Interval   — WebSocket overview broadcast period (default 5s)
//
// Load(path) applies defaults before unmarshalling, then validates.
package config
