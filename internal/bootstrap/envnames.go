package bootstrap

import (
	"strings"

	"github.com/worgue/magic-pocket/internal/project"
	"github.com/worgue/magic-pocket/internal/resources"
)

// General entries published by the resources phase.
const (
	EnvProjectName    = "POCKET_PROJECT_NAME"
	EnvRegion         = "POCKET_REGION"
	EnvNamespace      = "POCKET_NAMESPACE"
	EnvPrefixTemplate = "POCKET_PREFIX_TEMPLATE"
	EnvHosts          = "POCKET_HOSTS"
)

// HostEnv is POCKET_{KEY}_HOST.
func HostEnv(key string) string {
	return "POCKET_" + strings.ToUpper(key) + "_HOST"
}

// EndpointEnv is POCKET_{KEY}_ENDPOINT.
func EndpointEnv(key string) string {
	return "POCKET_" + strings.ToUpper(key) + "_ENDPOINT"
}

// QueueURLEnv is POCKET_{KEY}_QUEUEURL.
func QueueURLEnv(key string) string {
	return "POCKET_" + strings.ToUpper(key) + "_QUEUEURL"
}

type entry struct {
	name, value string
}

func generalEntries(cfg *project.Config) []entry {
	return []entry{
		{EnvProjectName, cfg.ProjectName},
		{EnvRegion, cfg.Region},
		{EnvNamespace, cfg.Namespace},
		{EnvPrefixTemplate, cfg.PrefixTemplate},
	}
}

// resourceEntries renders discovered resources. Empty lookups publish
// nothing. POCKET_HOSTS joins the found hosts in handler order with no
// separator.
func resourceEntries(cfg *project.Config, res resources.Resources) []entry {
	var out []entry
	var hosts strings.Builder

	for _, key := range cfg.HandlerKeys() {
		if host := res.Hosts[key]; host != "" {
			hosts.WriteString(host)
			out = append(out,
				entry{HostEnv(key), host},
				entry{EndpointEnv(key), "https://" + host},
			)
		}
	}
	out = append(out, entry{EnvHosts, hosts.String()})

	for _, key := range cfg.HandlerKeys() {
		if url := res.QueueURLs[key]; url != "" {
			out = append(out, entry{QueueURLEnv(key), url})
		}
	}
	return out
}
