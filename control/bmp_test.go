package control

import "testing"

func TestBMPSettingsFromStoreOverridesDefaults(t *testing.T) {
	cs := NewConfigStore()
	cs.SetConfig(map[string]any{
		"bmp.max_frame_payload": 4096,
		"bmp.compression":       true,
	})
	s := BMPSettingsFromStore(cs)
	if s.MaxFramePayload != 4096 {
		t.Errorf("MaxFramePayload = %d, want 4096", s.MaxFramePayload)
	}
	if !s.Compression {
		t.Error("Compression = false, want true")
	}
}

func TestBMPSettingsFromStoreFallsBackToDefaults(t *testing.T) {
	cs := NewConfigStore()
	s := BMPSettingsFromStore(cs)
	d := DefaultBMPSettings()
	if s != d {
		t.Errorf("s = %+v, want defaults %+v", s, d)
	}
}

func TestConnectionCountersAndProbe(t *testing.T) {
	counters := &ConnectionCounters{}
	counters.AddSent(2, 100)
	counters.AddReceived(1, 40)

	dp := NewDebugProbes()
	RegisterConnection("test", counters, dp, nil)

	snap := dp.DumpState()
	got, ok := snap["bmp.connection.test"].(map[string]any)
	if !ok {
		t.Fatalf("probe not registered or wrong type: %#v", snap)
	}
	if got["frames_sent"] != int64(2) || got["bytes_received"] != int64(40) {
		t.Errorf("unexpected snapshot: %+v", got)
	}
}

func TestConnectionCountersPushIntoMetricsRegistry(t *testing.T) {
	counters := &ConnectionCounters{}
	dp := NewDebugProbes()
	mr := NewMetricsRegistry()
	RegisterConnection("test", counters, dp, mr)

	counters.AddSent(1, 10)
	counters.AddReceived(2, 20)

	snap := mr.GetSnapshot()
	got, ok := snap["bmp.connection.test"].(map[string]any)
	if !ok {
		t.Fatalf("metric not registered or wrong type: %#v", snap)
	}
	if got["frames_sent"] != int64(1) || got["frames_received"] != int64(2) {
		t.Errorf("unexpected snapshot: %+v", got)
	}
	if mr.LastUpdated().IsZero() {
		t.Error("LastUpdated should be set after a push")
	}
}
