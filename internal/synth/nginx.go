package synth

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hostplane/hostplane/internal/certs"
)

// RenderNginx serializes a proxy route into an nginx virtual-host file.
// The output is deterministic: identical routes render byte-identical
// files, which is what makes the Configuration phase idempotent.
func RenderNginx(route ProxyRoute) []byte {
	var b strings.Builder

	b.WriteString("# Managed by hostplane. Manual edits are overwritten.\n\n")

	if route.RateLimit != nil {
		fmt.Fprintf(&b, "limit_req_zone $binary_remote_addr zone=%s_req:10m rate=%dr/s;\n\n",
			route.Zone, route.RateLimit.RequestsPerSecond)
	}

	if route.RedirectHTTP {
		renderRedirectServer(&b, route)
	}

	b.WriteString("server {\n")
	for _, binding := range route.ListenBindings {
		if binding.Port == HTTPPort {
			continue // handled by the redirect server
		}
		fmt.Fprintf(&b, "    listen %s ssl;\n", binding)
	}
	fmt.Fprintf(&b, "    server_name %s;\n\n", strings.Join(route.ServerNames, " "))

	fmt.Fprintf(&b, "    ssl_certificate     %s;\n", route.TLSCertPath)
	fmt.Fprintf(&b, "    ssl_certificate_key %s;\n", route.TLSKeyPath)
	b.WriteString("    ssl_protocols TLSv1.2 TLSv1.3;\n\n")

	if len(route.AllowedSources) > 0 {
		for _, cidr := range route.AllowedSources {
			fmt.Fprintf(&b, "    allow %s;\n", cidr)
		}
		b.WriteString("    deny all;\n\n")
	}

	if route.RateLimit != nil {
		fmt.Fprintf(&b, "    limit_req zone=%s_req burst=%d nodelay;\n\n",
			route.Zone, route.RateLimit.Burst)
	}

	// Longest prefix first so nginx location order matches intent.
	upstreams := append([]UpstreamTarget(nil), route.Upstreams...)
	sort.Slice(upstreams, func(i, j int) bool {
		return len(upstreams[i].PathPrefix) > len(upstreams[j].PathPrefix)
	})

	for _, u := range upstreams {
		fmt.Fprintf(&b, "    location %s {\n", u.PathPrefix)
		fmt.Fprintf(&b, "        proxy_pass http://%s;\n", u.Backend)
		b.WriteString("        proxy_set_header Host $host;\n")
		b.WriteString("        proxy_set_header X-Real-IP $remote_addr;\n")
		b.WriteString("        proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;\n")
		b.WriteString("        proxy_set_header X-Forwarded-Proto $scheme;\n")
		if u.Streaming {
			b.WriteString("        proxy_http_version 1.1;\n")
			b.WriteString("        proxy_set_header Upgrade $http_upgrade;\n")
			b.WriteString("        proxy_set_header Connection \"upgrade\";\n")
			b.WriteString("        proxy_buffering off;\n")
			b.WriteString("        proxy_read_timeout 1h;\n")
		}
		b.WriteString("    }\n")
	}

	b.WriteString("}\n")
	return []byte(b.String())
}

// renderRedirectServer emits the port-80 server: ACME challenge passthrough
// plus a permanent redirect to HTTPS.
func renderRedirectServer(b *strings.Builder, route ProxyRoute) {
	b.WriteString("server {\n")
	b.WriteString("    listen 0.0.0.0:80;\n")
	fmt.Fprintf(b, "    server_name %s;\n\n", strings.Join(route.ServerNames, " "))
	fmt.Fprintf(b, "    location /.well-known/acme-challenge/ {\n        proxy_pass http://127.0.0.1:%d;\n    }\n", certs.HTTP01ProxyPort)
	b.WriteString("    location / {\n")
	b.WriteString("        return 301 https://$host$request_uri;\n")
	b.WriteString("    }\n")
	b.WriteString("}\n\n")
}

// NginxFileName returns the vhost file name for a route.
func NginxFileName(route ProxyRoute) string {
	return fmt.Sprintf("hostplane-%s.conf", route.Zone)
}
