package plugins

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"text/template"

	"github.com/msahib/blog/layout"
	"github.com/msahib/blog/manifest"
)

var swTemplate = template.Must(template.New("sw").Parse(`const CACHE = "site-{{.Version}}";
const PRECACHE = {{.Precache}};

self.addEventListener("install", (event) => {
  event.waitUntil(caches.open(CACHE).then((c) => c.addAll(PRECACHE)).then(() => self.skipWaiting()));
});

self.addEventListener("activate", (event) => {
  event.waitUntil(
    caches.keys()
      .then((keys) => Promise.all(keys.filter((k) => k !== CACHE).map((k) => caches.delete(k))))
      .then(() => self.clients.claim())
  );
});

self.addEventListener("fetch", (event) => {
  const req = event.request;
  if (req.method !== "GET" || new URL(req.url).origin !== self.location.origin) {
    return;
  }
  event.respondWith(
    caches.match(req).then((hit) => {
      const net = fetch(req).then((res) => {
        if (res.ok) {
          const copy = res.clone();
          caches.open(CACHE).then((c) => c.put(req, copy));
        }
        return res;
      });
      return hit || net;
    })
  );
});
`))

// offline registers a service worker that precaches every page and caches
// everything else on first fetch.
type offline struct {
	named
}

func newOffline(*manifest.Manifest, manifest.Options) (Plugin, error) {
	return &offline{named: Offline}, nil
}

func (o *offline) Head(site *Site) []layout.HeadTag {
	sw, _ := json.Marshal(site.Path("/sw.js"))
	return []layout.HeadTag{layout.Script("",
		`if("serviceWorker" in navigator){window.addEventListener("load",function(){navigator.serviceWorker.register(`+string(sw)+`);});}`)}
}

func (o *offline) Finalize(_ context.Context, site *Site) error {
	data, err := ServiceWorker(site.PagePaths())
	if err != nil {
		return err
	}
	site.Emit("/sw.js", data)
	return nil
}

// ServiceWorker renders the worker script precaching paths. The cache name
// changes whenever the path list does.
func ServiceWorker(paths []string) ([]byte, error) {
	list, err := json.Marshal(paths)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(list)
	var buf bytes.Buffer
	err = swTemplate.Execute(&buf, struct {
		Version  string
		Precache string
	}{hex.EncodeToString(sum[:6]), string(list)})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
