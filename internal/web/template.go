package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/capture-rig/internal/sim"
	"github.com/sweeney/capture-rig/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"simtime": func(seconds int) string {
		return sim.FormatElapsed(seconds)
	},
	"mg": func(v float64) string {
		return fmt.Sprintf("%.2f", v)
	},
	"ppm": func(v float64) string {
		return fmt.Sprintf("%.2f", v)
	},
}).Parse(indexHTML))

func renderHTML(w io.Writer, snap status.Snapshot) {
	if err := indexTmpl.Execute(w, snap); err != nil {
		log.Printf("render status page: %v", err)
	}
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Capture Rig</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.running { color: green; font-weight: bold; }
.idle { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Capture Rig</h1>

<h2>Simulation</h2>
<table>
<tr><th>State</th><td id="run-state" class="{{if .Running}}running{{else}}idle{{end}}">{{if .Running}}RUNNING{{else}}IDLE{{end}}</td></tr>
<tr><th>CO₂ concentration</th><td id="ppm">{{ppm .Telemetry.CurrentPPM}} ppm</td></tr>
<tr><th>Na₂CO₃ yield</th><td id="yield">{{mg .Telemetry.CumulativeYieldMg}} mg</td></tr>
<tr><th>CO₂ captured</th><td id="captured">{{ppm .Telemetry.CumulativeCO2CapturedPPM}} ppm</td></tr>
<tr><th>Sim time</th><td id="sim-time">{{simtime .Telemetry.TimeElapsedSeconds}}</td></tr>
</table>

<h2>Parameters</h2>
<table>
<tr><th>Enclosure volume</th><td>{{.Params.EnclosureVolumeM3}} m³</td></tr>
<tr><th>Fan flow rate</th><td>{{.Params.FanFlowRateLPM}} L/min</td></tr>
<tr><th>Capture efficiency</th><td>{{.Params.CaptureEfficiency}}</td></tr>
<tr><th>Initial CO₂</th><td>{{.Params.InitialPPM}} ppm</td></tr>
<tr><th>Temperature</th><td>{{.Params.TemperatureCelsius}} °C</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}} / {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>Fan relay</th><td>{{if .Config.RelayEnabled}}enabled{{else}}disabled{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> · <a href="/history.json">History</a> · <a href="/metrics">Metrics</a></p>

<script>
(function() {
  function fmt2(v) { return v.toFixed(2); }

  function refresh() {
    fetch("/index.json").then(function(resp) {
      return resp.json();
    }).then(function(msg) {
      var s = msg.status;
      var state = document.getElementById("run-state");
      state.textContent = s.running ? "RUNNING" : "IDLE";
      state.className = s.running ? "running" : "idle";
      document.getElementById("ppm").textContent = fmt2(s.ppm) + " ppm";
      document.getElementById("yield").textContent = fmt2(s.yield_mg) + " mg";
      document.getElementById("captured").textContent = fmt2(s.captured_ppm) + " ppm";
      document.getElementById("sim-time").textContent = s.sim_time;
    }).catch(function() {});
  }

  setInterval(refresh, 2000);
})();
</script>
</body>
</html>
`
