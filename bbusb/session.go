package bbusb

import (
	"context"
	"errors"
	"time"

	"github.com/google/gousb"
)

// BitBabbler devices enumerate as an FTDI part with a vendor-assigned PID.
const (
	VendorID  = 0x0403
	ProductID = 0x7840
)

// MPSSE opcodes used by the BitBabbler read path.
const (
	mpsseNoClkDiv5        = 0x8A
	mpsseNoAdaptiveClk    = 0x97
	mpsseNo3PhaseClk      = 0x8D
	mpsseSetDataLow       = 0x80
	mpsseSetDataHigh      = 0x82
	mpsseSetClkDivisor    = 0x86
	mpsseSendImmediate    = 0x87
	mpsseNoLoopback       = 0x85
	mpsseDataByteInPosMSB = 0x20
)

// FTDI vendor control requests.
const (
	ftdiReqReset        = 0x00
	ftdiReqSetFlowCtrl  = 0x02
	ftdiReqSetEventChar = 0x06
	ftdiReqSetErrorChar = 0x07
	ftdiReqSetLatency   = 0x09
	ftdiReqSetBitmode   = 0x0B
)

const (
	ftdiResetSIO     = 0
	ftdiFlowRtsCts   = 0x0100
	ftdiBitmodeReset = 0x0000
	ftdiBitmodeMpsse = 0x0200
)

// session holds an open BitBabbler FTDI device in MPSSE mode.
type session struct {
	usb       *gousb.Context
	dev       *gousb.Device
	cfg       *gousb.Config
	intf      *gousb.Interface
	inEp      *gousb.InEndpoint
	outEp     *gousb.OutEndpoint
	maxPacket int
}

// openSession opens the first BitBabbler and walks it through the FTDI reset
// and MPSSE initialization sequence. bitrate 0 and latencyMs 0 select the
// vendor defaults (2.5 MHz, 1 ms).
func openSession(bitrate uint, latencyMs uint8) (*session, error) {
	if bitrate == 0 {
		bitrate = 2_500_000
	}
	if latencyMs == 0 {
		latencyMs = 1
	}

	usb := gousb.NewContext()
	s := &session{usb: usb}
	fail := func(err error) (*session, error) {
		s.Close()
		return nil, err
	}

	dev, err := usb.OpenDeviceWithVIDPID(gousb.ID(VendorID), gousb.ID(ProductID))
	if err != nil {
		return fail(err)
	}
	if dev == nil {
		return fail(errors.New("BitBabbler device not found"))
	}
	s.dev = dev
	_ = dev.SetAutoDetach(true)

	if s.cfg, err = dev.Config(1); err != nil {
		return fail(err)
	}
	if s.intf, err = s.cfg.Interface(0, 0); err != nil {
		return fail(err)
	}
	for _, ep := range s.intf.Setting.Endpoints {
		if ep.TransferType != gousb.TransferTypeBulk {
			continue
		}
		switch ep.Direction {
		case gousb.EndpointDirectionIn:
			if s.inEp, err = s.intf.InEndpoint(ep.Number); err != nil {
				return fail(err)
			}
		case gousb.EndpointDirectionOut:
			if s.outEp, err = s.intf.OutEndpoint(ep.Number); err != nil {
				return fail(err)
			}
		}
	}
	if s.inEp == nil || s.outEp == nil {
		return fail(errors.New("bulk endpoints not found"))
	}
	s.maxPacket = int(s.inEp.Desc.MaxPacketSize)

	if err := s.initMPSSE(bitrate, latencyMs); err != nil {
		return fail(err)
	}
	return s, nil
}

func (s *session) initMPSSE(bitrate uint, latencyMs uint8) error {
	if err := s.control(ftdiReqReset, ftdiResetSIO, 1); err != nil {
		return err
	}
	s.drain()
	if err := s.control(ftdiReqSetEventChar, 0, 1); err != nil {
		return err
	}
	if err := s.control(ftdiReqSetErrorChar, 0, 1); err != nil {
		return err
	}
	if err := s.control(ftdiReqSetLatency, uint16(latencyMs), 1); err != nil {
		return err
	}
	if err := s.control(ftdiReqSetFlowCtrl, 0, ftdiFlowRtsCts|1); err != nil {
		return err
	}
	if err := s.control(ftdiReqSetBitmode, ftdiBitmodeReset, 1); err != nil {
		return err
	}
	if err := s.control(ftdiReqSetBitmode, ftdiBitmodeMpsse, 1); err != nil {
		return err
	}
	time.Sleep(50 * time.Millisecond)

	// Bad-opcode echo check; one retry covers a half-initialized engine.
	ok := s.checkSync(0xAA) && s.checkSync(0xAB)
	if !ok {
		ok = s.checkSync(0xAA) && s.checkSync(0xAB)
	}
	if !ok {
		return errors.New("MPSSE sync failed")
	}

	clkDiv := uint16(30_000_000/bitrate - 1)
	cmd := []byte{
		mpsseNoClkDiv5,
		mpsseNoAdaptiveClk,
		mpsseNo3PhaseClk,
		mpsseSetDataLow,
		0x00, // low pins idle low
		0x0B, // CLK, DO, CS as outputs
		mpsseSetDataHigh,
		0x00,
		0x00, // high pins as inputs
		mpsseSetClkDivisor,
		byte(clkDiv & 0xFF),
		byte(clkDiv >> 8),
		mpsseNoLoopback,
	}
	if _, err := s.outEp.Write(cmd); err != nil {
		return err
	}
	time.Sleep(30 * time.Millisecond)
	s.drain()
	return nil
}

// Close releases all USB resources. Safe on a partially opened session.
func (s *session) Close() {
	if s == nil {
		return
	}
	if s.intf != nil {
		s.intf.Close()
	}
	if s.cfg != nil {
		s.cfg.Close()
	}
	if s.dev != nil {
		_ = s.dev.Close()
	}
	if s.usb != nil {
		_ = s.usb.Close()
	}
}

// readRandom fills buf from the device. FTDI prepends a 2-byte modem status
// to every packet on the IN endpoint; those headers are stripped here.
func (s *session) readRandom(ctx context.Context, buf []byte) error {
	want := len(buf)
	if want == 0 {
		return nil
	}
	cmd := []byte{
		mpsseDataByteInPosMSB,
		byte((want - 1) & 0xFF),
		byte((want - 1) >> 8),
		mpsseSendImmediate,
	}
	if _, err := s.outEp.Write(cmd); err != nil {
		return err
	}

	got := 0
	tmp := make([]byte, roundUpToPacket(want, s.maxPacket)+s.maxPacket)
	for got < want {
		if err := ctx.Err(); err != nil {
			return err
		}
		m, err := s.inEp.Read(tmp)
		if err != nil {
			return err
		}
		if m <= 2 {
			continue
		}
		for offset := 0; offset < m; {
			remain := m - offset
			if remain <= 2 {
				break
			}
			take := remain
			if take > s.maxPacket {
				take = s.maxPacket
			}
			usable := take - 2
			if usable > want-got {
				usable = want - got
			}
			copy(buf[got:got+usable], tmp[offset+2:offset+2+usable])
			got += usable
			offset += take
			if got == want {
				break
			}
		}
	}
	return nil
}

func (s *session) control(req uint8, value, index uint16) error {
	typ := uint8(gousb.ControlOut) | uint8(gousb.ControlVendor) | uint8(gousb.ControlDevice)
	_, err := s.dev.Control(typ, req, value, index, nil)
	return err
}

// drain discards pending IN data, including bare status headers.
func (s *session) drain() {
	buf := make([]byte, 8192)
	for i := 0; i < 10; i++ {
		n, _ := s.inEp.Read(buf)
		if n <= 2 {
			break
		}
	}
}

// checkSync sends an invalid opcode and expects the 0xFA bad-command echo.
func (s *session) checkSync(cmd byte) bool {
	if _, err := s.outEp.Write([]byte{cmd, mpsseSendImmediate}); err != nil {
		return false
	}
	buf := make([]byte, 512)
	for i := 0; i < 10; i++ {
		n, _ := s.inEp.Read(buf)
		if n == 4 && buf[2] == 0xFA && buf[3] == cmd {
			return true
		}
	}
	return false
}

func roundUpToPacket(n, max int) int {
	if max <= 0 || n%max == 0 {
		return n
	}
	return (n/max + 1) * max
}
