package signal

import "time"

// keepalive bounds reads by the pong deadline; every pong extends it.
func (ctl *SignalWSController) keepalive(c *WsSignalConn) {
	if ctl.opts.ReadLimit > 0 {
		c.conn.SetReadLimit(ctl.opts.ReadLimit)
	}
	if ctl.opts.PongWait <= 0 {
		return
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	})
}
