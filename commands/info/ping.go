package info

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/starshine-sys/bcr"
	"github.com/xf8b/xf8bot/command"
	"github.com/xf8b/xf8bot/common/log"
)

func (c *Commands) ping(ctx *command.Context) error {
	stats := runtime.MemStats{}
	runtime.ReadMemStats(&stats)

	memory := fmt.Sprintf("%v / %v", humanize.Bytes(stats.Alloc), humanize.Bytes(stats.Sys))
	if p, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if mi, err := p.MemoryInfoWithContext(ctx); err == nil {
			memory = fmt.Sprintf("%v (heap %v)", humanize.Bytes(mi.RSS), humanize.Bytes(stats.Alloc))
		}
	} else {
		log.Debugf("Error getting process info: %v", err)
	}

	e := discord.Embed{
		Color: bcr.ColourPurple,
		Fields: []discord.EmbedField{
			{
				Name:   "Memory usage",
				Value:  memory,
				Inline: true,
			},
			{
				Name:   "Garbage collected",
				Value:  humanize.Bytes(stats.TotalAlloc),
				Inline: true,
			},
			{
				Name:   "Goroutines",
				Value:  humanize.Comma(int64(runtime.NumGoroutine())),
				Inline: true,
			},
		},
	}

	if c.Pinger != nil {
		// 0 until the first heartbeat is acknowledged
		heartbeat := c.Pinger.Latency(ctx.GuildID).Round(time.Millisecond)
		e.Fields = append([]discord.EmbedField{{
			Name:   "Ping",
			Value:  fmt.Sprintf("Heartbeat: %v", heartbeat),
			Inline: true,
		}}, e.Fields...)
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		e.Fields = append(e.Fields, discord.EmbedField{
			Name:   "System memory",
			Value:  fmt.Sprintf("%v / %v (%.1f%%)", humanize.Bytes(vm.Used), humanize.Bytes(vm.Total), vm.UsedPercent),
			Inline: true,
		})
	}

	if !c.Start.IsZero() {
		e.Fields = append(e.Fields, discord.EmbedField{
			Name: "Uptime",
			Value: fmt.Sprintf(
				"%v\n(Since %v)",
				bcr.HumanizeDuration(bcr.DurationPrecisionSeconds, time.Since(c.Start)),
				c.Start.Format("Jan _2 2006, 15:04:05 MST"),
			),
			Inline: true,
		})
	}

	return ctx.Reply("", e)
}
