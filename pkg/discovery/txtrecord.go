package discovery

import (
	"fmt"
	"sort"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeControllerTXT creates TXT records for a controller advertisement.
func EncodeControllerTXT(info *ControllerInfo) TXTRecordMap {
	txt := make(TXTRecordMap)
	txt[TXTKeyModel] = info.Model

	if info.Firmware != "" {
		txt[TXTKeyFirmware] = info.Firmware
	}
	if info.Mode != "" {
		txt[TXTKeyMode] = info.Mode
	}
	if info.SSID != "" {
		txt[TXTKeySSID] = info.SSID
	}
	return txt
}

// DecodeControllerTXT parses the TXT records of a controller advertisement.
// Only the model is required.
func DecodeControllerTXT(txt TXTRecordMap) (*ControllerInfo, error) {
	model, ok := txt[TXTKeyModel]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyModel)
	}
	if model == "" {
		return nil, fmt.Errorf("%w: empty %s", ErrInvalidTXTRecord, TXTKeyModel)
	}

	info := &ControllerInfo{
		Model:    model,
		Firmware: txt[TXTKeyFirmware],
		Mode:     strings.ToUpper(txt[TXTKeyMode]),
		SSID:     txt[TXTKeySSID],
	}
	return info, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to a sorted slice of
// "key=value" strings.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, k+"="+v)
	}
	sort.Strings(result)
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) == 2 {
			txt[parts[0]] = parts[1]
		} else if len(parts) == 1 && parts[0] != "" {
			// Key without value (boolean flag)
			txt[parts[0]] = ""
		}
	}
	return txt
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: instance name", ErrMissingRequired)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}
