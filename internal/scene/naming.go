package scene

import "strings"

// HostName maps a file bone name to the host's side-suffix convention:
// "b_L_arm" becomes "b_arm.L".
func HostName(s string) string {
	if strings.Contains(s, "_l_") {
		s += ".l"
	} else if strings.Contains(s, "_L_") {
		s += ".L"
	}
	if strings.Contains(s, "_r_") {
		s += ".r"
	} else if strings.Contains(s, "_R_") {
		s += ".R"
	}
	for _, side := range []string{"_R_", "_L_", "_r_", "_l_"} {
		s = strings.ReplaceAll(s, side, "_")
	}
	return s
}

// FileName reverses HostName for names carrying one side suffix. The side
// marker goes after the two-character prefix.
func FileName(s string) string {
	for _, side := range []string{"L", "R", "l", "r"} {
		if strings.Contains(s, "."+side) {
			rest := ""
			if len(s) > 4 {
				rest = s[2 : len(s)-2]
			}
			return s[:2] + side + "_" + rest
		}
	}
	return s
}
