//go:build !windows

package bbusb

import "github.com/google/gousb"

// detectPresent enumerates USB devices through libusb and looks for the
// BitBabbler VID/PID without opening anything.
func detectPresent() (bool, error) {
	usb := gousb.NewContext()
	defer usb.Close()

	found := false
	_, err := usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if desc.Vendor == gousb.ID(VendorID) && desc.Product == gousb.ID(ProductID) {
			found = true
		}
		return false
	})
	if err != nil && !found {
		return false, err
	}
	return found, nil
}
