//go:build windows

package bbusb

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Presence is checked through SetupAPI rather than libusb so that detection
// works even when no libusb runtime is installed; only an actual Open needs
// the driver stack.

// GUID_DEVINTERFACE_USB_DEVICE {A5DCBF10-6530-11D2-901F-00C04FB951ED}
var guidUsbDevice = windows.GUID{
	Data1: 0xA5DCBF10, Data2: 0x6530, Data3: 0x11D2,
	Data4: [8]byte{0x90, 0x1F, 0x00, 0xC0, 0x4F, 0xB9, 0x51, 0xED},
}

const (
	digcfPresent         = 0x00000002
	digcfDeviceInterface = 0x00000010
)

type spDeviceInterfaceData struct {
	cbSize             uint32
	interfaceClassGuid windows.GUID
	flags              uint32
	reserved           uintptr
}

type spDeviceInterfaceDetailData struct {
	cbSize     uint32
	devicePath [1]uint16 // variable length
}

var (
	modSetupapi                          = windows.NewLazySystemDLL("setupapi.dll")
	procSetupDiGetClassDevsW             = modSetupapi.NewProc("SetupDiGetClassDevsW")
	procSetupDiEnumDeviceInterfaces      = modSetupapi.NewProc("SetupDiEnumDeviceInterfaces")
	procSetupDiGetDeviceInterfaceDetailW = modSetupapi.NewProc("SetupDiGetDeviceInterfaceDetailW")
	procSetupDiDestroyDeviceInfoList     = modSetupapi.NewProc("SetupDiDestroyDeviceInfoList")
)

// detectPresent walks the present USB device interfaces and matches the
// BitBabbler VID/PID in the interface path.
func detectPresent() (bool, error) {
	h, _, errCall := procSetupDiGetClassDevsW.Call(
		uintptr(unsafe.Pointer(&guidUsbDevice)),
		0, 0,
		uintptr(digcfPresent|digcfDeviceInterface),
	)
	if h == 0 || h == ^uintptr(0) {
		return false, fmt.Errorf("SetupDiGetClassDevsW: %w", errCall)
	}
	defer procSetupDiDestroyDeviceInfoList.Call(h)

	needle := strings.ToUpper(fmt.Sprintf("VID_%04X&PID_%04X", VendorID, ProductID))

	for index := uint32(0); ; index++ {
		var ifData spDeviceInterfaceData
		ifData.cbSize = uint32(unsafe.Sizeof(ifData))
		r, _, errEnum := procSetupDiEnumDeviceInterfaces.Call(
			h, 0,
			uintptr(unsafe.Pointer(&guidUsbDevice)),
			uintptr(index),
			uintptr(unsafe.Pointer(&ifData)),
		)
		if r == 0 {
			if errors.Is(errEnum, windows.ERROR_NO_MORE_ITEMS) {
				return false, nil
			}
			return false, fmt.Errorf("SetupDiEnumDeviceInterfaces: %w", errEnum)
		}

		path, err := interfacePath(h, &ifData)
		if err != nil {
			return false, err
		}
		if strings.Contains(strings.ToUpper(path), needle) {
			return true, nil
		}
	}
}

// interfacePath fetches the device path for one interface via the usual
// two-call size-then-data dance.
func interfacePath(h uintptr, ifData *spDeviceInterfaceData) (string, error) {
	var required uint32
	r, _, errSize := procSetupDiGetDeviceInterfaceDetailW.Call(
		h,
		uintptr(unsafe.Pointer(ifData)),
		0, 0,
		uintptr(unsafe.Pointer(&required)),
		0,
	)
	if r == 0 && !errors.Is(errSize, windows.ERROR_INSUFFICIENT_BUFFER) {
		return "", fmt.Errorf("SetupDiGetDeviceInterfaceDetailW (size): %w", errSize)
	}
	if required == 0 {
		return "", nil
	}

	buf := make([]byte, required)
	detail := (*spDeviceInterfaceDetailData)(unsafe.Pointer(&buf[0]))
	if runtime.GOARCH == "386" || runtime.GOARCH == "arm" {
		detail.cbSize = 6 // DWORD + one WCHAR, packed
	} else {
		detail.cbSize = 8
	}
	r, _, errData := procSetupDiGetDeviceInterfaceDetailW.Call(
		h,
		uintptr(unsafe.Pointer(ifData)),
		uintptr(unsafe.Pointer(detail)),
		uintptr(required),
		0, 0,
	)
	if r == 0 {
		return "", fmt.Errorf("SetupDiGetDeviceInterfaceDetailW: %w", errData)
	}
	return windows.UTF16PtrToString(&detail.devicePath[0]), nil
}
