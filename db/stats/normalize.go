package stats

import "regexp"

type route struct {
	re   *regexp.Regexp
	repl string
}

func r(expr, repl string) route {
	return route{re: regexp.MustCompile(expr), repl: repl}
}

// routes are applied in order, so paths with a token after an ID come before the bare ID.
var routes = []route{
	r(`/channels/\d+`, "/channels/{channel_id}"),
	r(`/messages/\d+`, "/messages/{message_id}"),
	r(`/guilds/\d+`, "/guilds/{guild_id}"),
	r(`/members/\d+`, "/members/{user_id}"),
	r(`/roles/\d+`, "/roles/{role_id}"),
	r(`/users/\d+`, "/users/{user_id}"),
	r(`/applications/\d+`, "/applications/{application_id}"),
	r(`/commands/\d+`, "/commands/{command_id}"),
	r(`/webhooks/\d+/[^/]+`, "/webhooks/{webhook_id}/{webhook_token}"),
	r(`/webhooks/\d+`, "/webhooks/{webhook_id}"),
	r(`/interactions/\d+/[^{/]+`, "/interactions/{interaction_id}/{interaction_token}"),
	r(`/reactions/[^{/]+/\d+`, "/reactions/{emoji}/{user_id}"),
	r(`/reactions/[^{/]+`, "/reactions/{emoji}"),
	r(`\d{15,}`, "{snowflake}"),
}

var (
	apiVersion = regexp.MustCompile(`^/api/v\d+`)

	webhookToken     = regexp.MustCompile(`/webhooks/(\d+)/[^/]+`)
	interactionToken = regexp.MustCompile(`/interactions/(\d+)/[^{/]+`)
)

// NormalizePath replaces the IDs and tokens in an API path with placeholders,
// so that requests to the same route are counted together.
func NormalizePath(path string) string {
	for _, rt := range routes {
		path = rt.re.ReplaceAllLiteralString(path, rt.repl)
	}
	return path
}

// EndpointMetricsName returns the metrics name of a request, e.g. "GET /channels/{channel_id}/messages".
func EndpointMetricsName(method, path string) string {
	return method + " " + NormalizePath(apiVersion.ReplaceAllLiteralString(path, ""))
}

// LoggingName hides webhook and interaction tokens in path.
func LoggingName(path string) string {
	path = webhookToken.ReplaceAllString(path, "/webhooks/$1/:token")
	return interactionToken.ReplaceAllString(path, "/interactions/$1/:token")
}
