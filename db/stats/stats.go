// Package stats submits usage statistics to InfluxDB once a minute.
// All methods are safe to call on a nil *Client, in which case they do nothing.
package stats

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"strconv"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/xf8b/xf8bot/common/log"
)

// Interval is how often statistics are submitted.
const Interval = time.Minute

// Client is an InfluxDB client
type Client struct {
	Client api.WriteAPI

	// Sessions returns the number of live music sessions.
	Sessions func() int

	mu       sync.Mutex
	queries  uint32
	cmds     uint32
	events   map[string]uint32
	requests map[string]uint32
}

// New creates a new client. Statistics are submitted until ctx is cancelled.
func New(ctx context.Context, url, token, organization, database string) *Client {
	c := &Client{
		events:   make(map[string]uint32),
		requests: make(map[string]uint32),
	}

	c.Client = influxdb2.NewClientWithOptions(url, token,
		influxdb2.DefaultOptions().SetBatchSize(20)).WriteAPI(organization, database)

	go c.submit(ctx)

	return c
}

// EventHandler handles Arikawa events
func (c *Client) EventHandler(ev interface{}) {
	t := reflect.TypeOf(ev)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	c.RegisterEvent(t.Name())
}

// RegisterEvent registers an event name.
func (c *Client) RegisterEvent(name string) {
	if c == nil {
		return
	}

	c.mu.Lock()
	c.events[name]++
	c.mu.Unlock()
}

// IncQuery increments the query count by one
func (c *Client) IncQuery() {
	if c == nil {
		return
	}

	c.mu.Lock()
	c.queries++
	c.mu.Unlock()
}

// IncCommand increments the command count by one
func (c *Client) IncCommand() {
	if c == nil {
		return
	}

	c.mu.Lock()
	c.cmds++
	c.mu.Unlock()
}

// IncRequest counts a request to the Discord API.
func (c *Client) IncRequest(method, path string, status int) {
	if c == nil {
		return
	}

	key := EndpointMetricsName(method, path) + " " + strconv.Itoa(status)

	c.mu.Lock()
	c.requests[key]++
	c.mu.Unlock()
}

func (c *Client) submit(ctx context.Context) {
	ticker := time.NewTicker(Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			go c.submitInner()
		case <-ctx.Done():
			c.Client.Flush()
			return
		}
	}
}

// snapshot returns the current counters and resets them.
func (c *Client) snapshot() (cmds, queries uint32, events, requests map[string]interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cmds, queries = c.cmds, c.queries
	c.cmds, c.queries = 0, 0

	events = make(map[string]interface{}, len(c.events))
	for k, v := range c.events {
		events[k] = v
		c.events[k] = 0
	}

	requests = make(map[string]interface{}, len(c.requests))
	for k, v := range c.requests {
		requests[k] = v
	}
	c.requests = make(map[string]uint32)

	return cmds, queries, events, requests
}

func (c *Client) submitInner() {
	log.Debug("Submitting metrics to InfluxDB")

	cmds, queries, events, requests := c.snapshot()

	var totalEvents uint32
	for _, v := range events {
		totalEvents += v.(uint32)
	}

	now := time.Now()

	c.Client.WritePoint(influxdb2.NewPoint("events", nil, events, now))
	if len(requests) > 0 {
		c.Client.WritePoint(influxdb2.NewPoint("requests", nil, requests, now))
	}

	stats := runtime.MemStats{}
	runtime.ReadMemStats(&stats)

	data := map[string]interface{}{
		"queries":     queries,
		"events":      totalEvents,
		"commands":    cmds,
		"alloc":       stats.Alloc,
		"sys":         stats.Sys,
		"total_alloc": stats.TotalAlloc,
		"goroutines":  runtime.NumGoroutine(),
	}

	if c.Sessions != nil {
		data["music_sessions"] = c.Sessions()
	}

	sysMem, err := mem.VirtualMemory()
	if err != nil {
		log.Errorf("Error getting system memory: %v", err)
	} else {
		data["total_sys"] = sysMem.Used
		data["total_sys_percent"] = sysMem.UsedPercent
	}

	cpuData, err := cpu.Percent(time.Second, true)
	if err != nil {
		log.Errorf("Error getting cpu info: %v", err)
	} else {
		for i, d := range cpuData {
			data[fmt.Sprintf("cpu_%d", i)] = d
		}
	}

	c.Client.WritePoint(influxdb2.NewPoint("statistics", nil, data, time.Now()))
}
