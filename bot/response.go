package bot

import (
	"github.com/diamondburned/arikawa/v3/utils/httputil/httpdriver"
	"github.com/xf8b/xf8bot/common/log"
	"github.com/xf8b/xf8bot/db/stats"
)

// onResponse logs a request's status code and adds it to the statistics.
func (bot *Bot) onResponse(req httpdriver.Request, resp httpdriver.Response) error {
	method := "GET"
	if v, ok := req.(*httpdriver.DefaultRequest); ok && v.Method != "" {
		method = v.Method
	}

	if resp == nil {
		return nil
	}

	log.Debugf("%v %v => %v", method, stats.LoggingName(req.GetPath()), resp.GetStatus())

	bot.DB.Stats.IncRequest(method, req.GetPath(), resp.GetStatus())
	return nil
}
