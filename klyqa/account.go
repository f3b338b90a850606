package klyqa

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-home-io/klyqa/plugins/common"
	"github.com/go-home-io/klyqa/providers"
	"github.com/go-home-io/klyqa/utils"
	"github.com/gobwas/glob"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
)

const (
	// Logs representation.
	logSystemAccount = "klyqa_account"

	settingsCacheKey = "settings"
)

// Pending answer for a single device.
type waiter struct {
	once sync.Once
	uid  string
	cb   AnswerCallback
	done chan struct{}
}

// Invokes callback exactly once.
func (w *waiter) resolve(msg *Message) {
	w.once.Do(func() {
		defer close(w.done)
		if w.cb != nil {
			w.cb(msg, w.uid)
		}
	})
}

// Account implementation.
type account struct {
	sync.RWMutex
	logger    common.ILoggerProvider
	transport ITransport
	cloud     ICloud
	bus       providers.IEventBusProvider
	cron      providers.ICronProvider
	settings  *providers.KlyqaSettings

	eco         *cache.Cache
	accSettings *AccountSettings
	devices     map[string]*Device
	announced   map[string]bool
	include     []glob.Glob
	exclude     []glob.Glob

	waitersMutex sync.Mutex
	waiters      map[string][]*waiter

	cronID   int
	started  bool
	shutdown bool
}

// ConstructAccount has data required for a new account.
type ConstructAccount struct {
	Logger    common.ILoggerProvider
	Transport ITransport
	Cloud     ICloud
	Bus       providers.IEventBusProvider
	Cron      providers.ICronProvider
	Settings  *providers.KlyqaSettings
}

// NewAccount constructs a new Klyqa account.
func NewAccount(ctor *ConstructAccount) (IAccount, error) {
	a := &account{
		logger:      ctor.Logger,
		transport:   ctor.Transport,
		cloud:       ctor.Cloud,
		bus:         ctor.Bus,
		cron:        ctor.Cron,
		settings:    ctor.Settings,
		eco:         cache.New(time.Duration(ctor.Settings.SettingsTTL)*time.Second, time.Minute),
		accSettings: &AccountSettings{Devices: make([]*DeviceSettings, 0), Rooms: make([]*Room, 0)},
		devices:     make(map[string]*Device),
		announced:   make(map[string]bool),
		waiters:     make(map[string][]*waiter),
		cronID:      -1,
	}

	var err error
	a.include, err = compileGlobs(ctor.Settings.Include)
	if err != nil {
		return nil, errors.Wrap(err, "include filter")
	}

	a.exclude, err = compileGlobs(ctor.Settings.Exclude)
	if err != nil {
		return nil, errors.Wrap(err, "exclude filter")
	}

	return a, nil
}

// Devices returns snapshot of known devices.
func (a *account) Devices() map[string]*Device {
	a.RLock()
	defer a.RUnlock()

	result := make(map[string]*Device, len(a.devices))
	for k, v := range a.devices {
		d := *v
		result[k] = &d
	}

	return result
}

// Settings returns latest account settings.
// Returned value is replaced on every refresh and never modified.
func (a *account) Settings() *AccountSettings {
	a.RLock()
	defer a.RUnlock()
	return a.accSettings
}

// UpdateAccount loads settings from the cloud and announces new devices.
func (a *account) UpdateAccount(ctx context.Context) error {
	if err := a.RequestAccountSettings(ctx); err != nil {
		return err
	}

	return a.ProcessAccountSettings(ctx)
}

// RequestAccountSettings loads settings from the cloud.
func (a *account) RequestAccountSettings(ctx context.Context) error {
	settings, err := a.cloud.GetSettings(ctx)
	if err != nil {
		return errors.Wrap(err, "request account settings")
	}

	if nil == settings.Devices {
		settings.Devices = make([]*DeviceSettings, 0)
	}
	if nil == settings.Rooms {
		settings.Rooms = make([]*Room, 0)
	}

	a.Lock()
	a.accSettings = settings
	a.Unlock()

	a.eco.SetDefault(settingsCacheKey, settings)
	a.logger.Debug("Received account settings", common.LogSystemToken, logSystemAccount,
		"devices", fmt.Sprintf("%d", len(settings.Devices)))
	return nil
}

// RequestAccountSettingsEco loads settings from the cloud
// only if cached settings are expired.
func (a *account) RequestAccountSettingsEco(ctx context.Context) error {
	if _, ok := a.eco.Get(settingsCacheKey); ok {
		return nil
	}

	return a.RequestAccountSettings(ctx)
}

// ProcessAccountSettings updates devices map and announces new vacuum cleaners.
func (a *account) ProcessAccountSettings(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	announce := make([]*DeviceSettings, 0)

	a.Lock()
	for _, v := range a.accSettings.Devices {
		uid := FormatUID(v.LocalDeviceID)
		if uid == "" || !a.isAllowed(uid) {
			continue
		}

		dev, ok := a.devices[uid]
		if !ok {
			dev = &Device{UID: uid}
			a.devices[uid] = dev
		}
		dev.AccData = v

		if v.IsCleaner() && !a.announced[uid] {
			a.announced[uid] = true
			announce = append(announce, v)
		}
	}
	a.Unlock()

	for _, v := range announce {
		a.logger.Info("Found new vacuum cleaner", common.LogSystemToken, logSystemAccount,
			common.LogDeviceUIDToken, FormatUID(v.LocalDeviceID), common.LogDeviceNameToken, v.Name)
		a.bus.Fire(EventNewVacuum, v)
	}

	return nil
}

// SendToDevices delivers request to every addressed device.
// Callback is invoked once per device: with the answer, or with nil
// if device didn't answer in time or request was not delivered.
// Method returns once every callback has been invoked.
func (a *account) SendToDevices(ctx context.Context, req *Request, args []string, cb AnswerCallback,
	timeout time.Duration) error {
	a.RLock()
	stopped := a.shutdown
	a.RUnlock()

	if stopped {
		a.failAll(req.DeviceUnitIDs, cb)
		return &ErrShutdown{}
	}

	if !req.Local {
		a.failAll(req.DeviceUnitIDs, cb)
		return &ErrCloudNotSupported{}
	}

	payload, err := req.Payload()
	if err != nil {
		a.failAll(req.DeviceUnitIDs, cb)
		return errors.Wrap(err, "build payload")
	}

	a.logger.Debug("Sending request", common.LogSystemToken, logSystemAccount,
		common.LogDeviceCommandToken, strings.Join(args, " "))

	wg := sync.WaitGroup{}
	for _, uid := range req.DeviceUnitIDs {
		w := &waiter{uid: uid, cb: cb, done: make(chan struct{})}
		a.enqueue(w)

		if err := a.transport.Publish(uid, payload); err != nil {
			a.logger.Error("Failed to publish request", err, common.LogSystemToken, logSystemAccount,
				common.LogDeviceUIDToken, uid)
			a.dequeue(w)
			w.resolve(nil)
			continue
		}

		wg.Add(1)
		go func(w *waiter) {
			defer wg.Done()
			timer := time.NewTimer(timeout)
			defer timer.Stop()

			select {
			case <-w.done:
				return
			case <-timer.C:
				a.logger.Warn("Device didn't answer in time", common.LogSystemToken, logSystemAccount,
					common.LogDeviceUIDToken, w.uid)
			case <-ctx.Done():
			}

			a.dequeue(w)
			w.resolve(nil)
		}(w)
	}

	wg.Wait()
	return nil
}

// Start connects local bridge and schedules account refresh.
func (a *account) Start() error {
	a.Lock()
	if a.started {
		a.Unlock()
		return nil
	}
	a.started = true
	a.shutdown = false
	a.Unlock()

	if err := a.transport.Connect(); err != nil {
		return errors.Wrap(err, "connect transport")
	}

	if err := a.transport.Subscribe(a.handleMessage); err != nil {
		return errors.Wrap(err, "subscribe transport")
	}

	if a.settings.RefreshPeriod > 0 {
		id, err := a.cron.AddFunc(utils.EverySpec(time.Duration(a.settings.RefreshPeriod)*time.Second), a.refresh)
		if err != nil {
			return errors.Wrap(err, "schedule refresh")
		}

		a.Lock()
		a.cronID = id
		a.Unlock()
	}

	return nil
}

// Stop cancels background refresh.
func (a *account) Stop() {
	a.Lock()
	id := a.cronID
	a.cronID = -1
	a.Unlock()

	if id >= 0 {
		a.cron.RemoveFunc(id)
	}
}

// Shutdown fails pending requests and closes local bridge.
func (a *account) Shutdown() {
	a.Stop()

	a.Lock()
	if a.shutdown {
		a.Unlock()
		return
	}
	a.shutdown = true
	a.started = false
	a.Unlock()

	a.waitersMutex.Lock()
	pending := a.waiters
	a.waiters = make(map[string][]*waiter)
	a.waitersMutex.Unlock()

	for _, list := range pending {
		for _, w := range list {
			w.resolve(nil)
		}
	}

	a.transport.Close()
	a.logger.Info("Account is shut down", common.LogSystemToken, logSystemAccount)
}

// Handles device answer received from the local bridge.
func (a *account) handleMessage(uid string, payload []byte) {
	msg := &Message{
		UID:        uid,
		Payload:    payload,
		ReceivedAt: time.Now().UTC(),
	}

	status := &Status{}
	if err := json.Unmarshal(payload, status); err != nil {
		a.logger.Warn("Received malformed answer", common.LogSystemToken, logSystemAccount,
			common.LogDeviceUIDToken, uid)
	} else {
		msg.Answer = status
	}

	a.Lock()
	dev, ok := a.devices[uid]
	if !ok && a.isAllowed(uid) {
		dev = &Device{UID: uid}
		a.devices[uid] = dev
		ok = true
	}

	if ok {
		dev.LastSeen = msg.ReceivedAt
		if msg.Answer != nil {
			dev.Status = msg.Answer
			if TypeError == msg.Answer.Type {
				dev.LastError = msg.Answer
			}
		}
	}
	a.Unlock()

	if msg.Answer != nil && msg.Answer.Type == TypeError {
		a.logger.Warn("Device reported error", common.LogSystemToken, logSystemAccount,
			common.LogDeviceUIDToken, uid, "msg", msg.Answer.Message)
	}

	if w := a.pop(uid); w != nil {
		w.resolve(msg)
	}
}

// Scheduled account refresh.
func (a *account) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(a.settings.RequestTimeout)*time.Second)
	defer cancel()

	if err := a.UpdateAccount(ctx); err != nil {
		a.logger.Error("Failed to refresh account", err, common.LogSystemToken, logSystemAccount)
	}
}

// Invokes callback with nil answer for every device.
func (a *account) failAll(uids []string, cb AnswerCallback) {
	if nil == cb {
		return
	}

	for _, v := range uids {
		cb(nil, v)
	}
}

func (a *account) enqueue(w *waiter) {
	a.waitersMutex.Lock()
	defer a.waitersMutex.Unlock()
	a.waiters[w.uid] = append(a.waiters[w.uid], w)
}

func (a *account) dequeue(w *waiter) {
	a.waitersMutex.Lock()
	defer a.waitersMutex.Unlock()

	list := a.waiters[w.uid]
	for ii, v := range list {
		if v == w {
			a.waiters[w.uid] = append(list[:ii], list[ii+1:]...)
			break
		}
	}

	if 0 == len(a.waiters[w.uid]) {
		delete(a.waiters, w.uid)
	}
}

// Returns the oldest pending waiter.
func (a *account) pop(uid string) *waiter {
	a.waitersMutex.Lock()
	defer a.waitersMutex.Unlock()

	list := a.waiters[uid]
	if 0 == len(list) {
		return nil
	}

	w := list[0]
	if 1 == len(list) {
		delete(a.waiters, uid)
	} else {
		a.waiters[uid] = list[1:]
	}

	return w
}

// Checks device unit ID against configured filters.
// Must be called under the lock.
func (a *account) isAllowed(uid string) bool {
	for _, v := range a.exclude {
		if v.Match(uid) {
			return false
		}
	}

	if 0 == len(a.include) {
		return true
	}

	for _, v := range a.include {
		if v.Match(uid) {
			return true
		}
	}

	return false
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	result := make([]glob.Glob, 0, len(patterns))
	for _, v := range patterns {
		g, err := glob.Compile(strings.ToLower(v))
		if err != nil {
			return nil, err
		}
		result = append(result, g)
	}

	return result, nil
}
