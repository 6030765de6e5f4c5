package leaflet

import (
	"fmt"
	"html/template"
	"io"
	"time"
)

var pageTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<meta name="generated" content="{{.Generated}}">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<link rel="stylesheet" href="https://unpkg.com/leaflet.markercluster@1.5.3/dist/MarkerCluster.css">
<link rel="stylesheet" href="https://unpkg.com/leaflet.markercluster@1.5.3/dist/MarkerCluster.Default.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<script src="https://unpkg.com/leaflet.markercluster@1.5.3/dist/leaflet.markercluster.js"></script>
<style>html, body, #map { width: 100%; height: 100%; margin: 0; padding: 0; }</style>
</head>
<body>
<div id="map"></div>
<script>
(function () {
const model = {{.Map}};
const map = L.map("map").setView(model.center, model.zoom);
const base = L.tileLayer(model.tiles.url, {attribution: model.tiles.attribution, maxZoom: 19}).addTo(map);
const overlays = {};

function popup(lines) {
  const div = document.createElement("div");
  (lines || []).forEach(function (line, i) {
    if (i > 0) { div.appendChild(document.createElement("br")); }
    div.appendChild(document.createTextNode(line));
  });
  return div;
}

model.layers.forEach(function (layer) {
  const cluster = L.markerClusterGroup();
  (layer.markers || []).forEach(function (m) {
    L.circleMarker([m.lat, m.lng], {
      radius: m.radius,
      color: m.color,
      fill: true,
      fillColor: m.fillColor,
      fillOpacity: m.fillOpacity
    }).bindPopup(popup(m.popup)).addTo(cluster);
  });
  if (layer.name) {
    overlays[layer.name] = L.featureGroup([cluster]).addTo(map);
  } else {
    cluster.addTo(map);
  }
});

if (model.layerControl) {
  const bases = {};
  bases[model.tiles.name] = base;
  L.control.layers(bases, overlays).addTo(map);
}
})();
</script>
</body>
</html>
`))

type page struct {
	Title     string
	Generated string
	Map       Map
}

// Render writes m as a standalone HTML document.
func Render(w io.Writer, title string, generated time.Time, m Map) error {
	if m.Layers == nil {
		m.Layers = []Layer{}
	}
	p := page{
		Title:     title,
		Generated: generated.UTC().Format(time.RFC3339),
		Map:       m,
	}
	if err := pageTemplate.Execute(w, p); err != nil {
		return fmt.Errorf("render map page: %w", err)
	}
	return nil
}
