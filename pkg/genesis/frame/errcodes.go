package frame

// Firmware status codes with special meaning to callers.
const (
	ErrCodeSuccess        = 0
	ErrCodeInvalidOperand = 3
	ErrCodeNotInitialized = 7
	ErrCodeNoLiquid       = 9
	ErrCodeNotEnoughLiq   = 11
)

// UnknownFault is the category of codes missing from the table.
const UnknownFault = "unknown fault"

var errorTable = map[int]string{
	1:  "Initialization failed",
	2:  "Invalid command",
	3:  "Invalid operand",
	4:  "CAN acknowledge problems",
	5:  "Device not implemented",
	6:  "CAN answer timeout",
	7:  "Device not initialized",
	8:  "Command overflow of TeCU",
	9:  "No liquid detected",
	10: "Drive no load",
	11: "Not enough liquid",
	12: "Not enough liquid",
	13: "No Flash access",
	15: "Command overflow of subdevice",
	17: "Measurement failed",
	18: "Clot limit passed",
	19: "No clot exit detected",
	20: "No liquid exit detected",
	21: "Delta pressure overrun (pLLD)",
	22: "Tip Guard in wrong position",
	23: "Not yet moved or move aborted",
	24: "llid pulse error or reed crosstalk error",
	25: "Tip not fetched",
	26: "Tip not mounted",
	27: "Tip mounted",
	28: "Subdevice error",
	29: "Application switch and axes mismatch",
	30: "Wrong DC-Servo type",
	31: "Virtual Drive",
}

// ErrorCategory returns the fault category of a status code.
func ErrorCategory(code int) string {
	if code == ErrCodeSuccess {
		return "success"
	}
	if s, ok := errorTable[code]; ok {
		return s
	}
	return UnknownFault
}

// KnownErrorCode indicates the code is listed in the firmware error table.
func KnownErrorCode(code int) bool {
	_, ok := errorTable[code]
	return ok
}
