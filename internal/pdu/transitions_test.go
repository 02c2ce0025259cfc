package pdu

import "testing"

func TestBootToOperate(t *testing.T) {
	u := &PduUnit{apid: APIDNominal}
	if u.ModeValue() != ModeBoot {
		t.Fatalf("initial mode = %v, want Boot", u.ModeValue())
	}
	if m, f := u.RequestTransition(CmdGoLoad); f != nil || m != ModeLoad {
		t.Fatalf("GoLoad: mode=%v fault=%v", m, f)
	}
	if m, f := u.RequestTransition(CmdGoOperate); f != nil || m != ModeOperate {
		t.Fatalf("GoOperate: mode=%v fault=%v", m, f)
	}
}

func TestInvalidModeJumpRejected(t *testing.T) {
	u := &PduUnit{apid: APIDNominal}
	m, f := u.RequestTransition(CmdGoOperate)
	if f == nil || f.Kind() != FaultInvalidStateTransition {
		t.Fatalf("got %v, want InvalidStateTransition", f)
	}
	if m != ModeBoot {
		t.Fatalf("mode = %v, want unchanged Boot", m)
	}
	if u.ModeValue() != ModeBoot {
		t.Fatalf("unit mode = %v, want Boot", u.ModeValue())
	}
}

func TestSafeAndMaintenanceRoundTrip(t *testing.T) {
	u := &PduUnit{apid: APIDNominal}
	u.status.Mode = ModeOperate
	if m, f := u.RequestTransition(CmdGoSafe); f != nil || m != ModeSafe {
		t.Fatalf("GoSafe: %v %v", m, f)
	}
	if m, f := u.RequestTransition(CmdGoOperate); f != nil || m != ModeOperate {
		t.Fatalf("Safe->Operate: %v %v", m, f)
	}
	if m, f := u.RequestTransition(CmdGoMaintenance); f != nil || m != ModeMaintenance {
		t.Fatalf("GoMaintenance: %v %v", m, f)
	}
	if m, f := u.RequestTransition(CmdGoOperate); f != nil || m != ModeOperate {
		t.Fatalf("Maintenance->Operate: %v %v", m, f)
	}
}
