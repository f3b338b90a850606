package vacuum

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-home-io/klyqa/klyqa"
	"github.com/go-home-io/klyqa/plugins/common"
	"github.com/pkg/errors"
)

// ErrNoAcknowledgement defines send which finished without acknowledgement.
type ErrNoAcknowledgement struct {
	UID string
}

// Error formats output.
func (e *ErrNoAcknowledgement) Error() string {
	return "device " + e.UID + " didn't acknowledge the command"
}

// Sends command to the device and waits for a single acknowledgement.
// Every command is prefixed with the same local targeting arguments.
func (v *klyqaVacuum) send(tokens []string) error {
	args := append([]string{"--local", "--device_unitids", v.uid}, tokens...)
	req, err := v.ctor.Parser.Parse(args)
	if err != nil {
		v.ctor.Metrics.dispatched(v.uid, resultParseError)
		return errors.Wrap(err, "parse command")
	}

	done := make(chan struct{})
	once := sync.Once{}
	release := func() {
		once.Do(func() { close(done) })
	}

	ack := func(msg *klyqa.Message, uid string) {
		defer release()
		defer func() {
			if r := recover(); r != nil {
				v.ctor.Logger.Error("Failed to process acknowledgement", fmt.Errorf("%v", r), v.logFields()...)
			}
		}()

		v.ctor.Logger.Debug("Received acknowledgement", append(v.logFields(), "ack_uid", uid)...)
		if uid != v.uid {
			v.ctor.Metrics.dispatched(v.uid, resultMismatch)
			return
		}

		if nil == msg {
			v.ctor.Metrics.dispatched(v.uid, resultNoAnswer)
		} else {
			v.ctor.Metrics.dispatched(v.uid, resultAck)
		}

		var status *klyqa.Status
		if d, ok := v.ctor.Account.Devices()[v.uid]; ok {
			status = d.Status
		}

		v.applyStatus(status)
		v.scheduleUpdate()
	}

	v.ctor.Logger.Debug("Sending command", append(v.logFields(),
		common.LogDeviceCommandToken, strings.Join(tokens, " "))...)

	sent := make(chan error, 1)
	go func() {
		sent <- v.ctor.Account.SendToDevices(v.ctx, req, args, ack, v.sendTimeout)
	}()

	var sendErr error
	reaped := false
	select {
	case <-done:
	case sendErr = <-sent:
		reaped = true
		select {
		case <-done:
		default:
			v.ctor.Metrics.dispatched(v.uid, resultSendError)
			if nil == sendErr {
				sendErr = &ErrNoAcknowledgement{UID: v.uid}
			}
			return errors.Wrap(sendErr, "send command")
		}
	case <-v.ctx.Done():
		v.ctor.Metrics.dispatched(v.uid, resultCancelled)
		return v.ctx.Err()
	}

	if !reaped {
		timer := time.NewTimer(v.reapGrace)
		defer timer.Stop()

		select {
		case sendErr = <-sent:
		case <-timer.C:
			v.ctor.Metrics.reapTimeouts.WithLabelValues(v.uid).Inc()
			v.ctor.Logger.Warn("Timeout send", v.logFields()...)
			return nil
		}
	}

	if sendErr != nil {
		v.ctor.Logger.Error("Send finished with error", sendErr, v.logFields()...)
	}

	return nil
}
