package ril

import "strconv"

// Response type markers written as the first field of every outbound frame.
const (
	ResponseSolicited   int32 = 0
	ResponseUnsolicited int32 = 1
)

// Request is the opcode of an inbound request parcel.
type Request int32

const (
	RequestGetSIMStatus                     Request = 1
	RequestEnterSIMPIN                      Request = 2
	RequestEnterSIMPUK                      Request = 3
	RequestEnterSIMPIN2                     Request = 4
	RequestEnterSIMPUK2                     Request = 5
	RequestGetCurrentCalls                  Request = 9
	RequestDial                             Request = 10
	RequestGetIMSI                          Request = 11
	RequestHangup                           Request = 12
	RequestHangupWaitingOrBackground        Request = 13
	RequestSwitchWaitingOrHoldingAndActive  Request = 15
	RequestConference                       Request = 16
	RequestUDUB                             Request = 17
	RequestLastCallFailCause                Request = 18
	RequestSignalStrength                   Request = 19
	RequestVoiceRegistrationState           Request = 20
	RequestDataRegistrationState            Request = 21
	RequestOperator                         Request = 22
	RequestRadioPower                       Request = 23
	RequestSIMIO                            Request = 28
	RequestGetCLIR                          Request = 31
	RequestSetCLIR                          Request = 32
	RequestGetIMEI                          Request = 38
	RequestGetIMEISV                        Request = 39
	RequestAnswer                           Request = 40
	RequestQueryNetworkSelectionMode        Request = 45
	RequestDTMFStart                        Request = 49
	RequestDTMFStop                         Request = 50
	RequestBasebandVersion                  Request = 51
	RequestSetPreferredNetworkType          Request = 73
	RequestGetPreferredNetworkType          Request = 74
	RequestCDMASetRoamingPreference         Request = 78
	RequestCDMASetPreferredVoicePrivacyMode Request = 82
	RequestExitEmergencyCallbackMode        Request = 99
	RequestGetSMSCAddress                   Request = 100
	RequestVoiceRadioTech                   Request = 108
)

var requestNames = map[Request]string{
	RequestGetSIMStatus:                     "GET_SIM_STATUS",
	RequestEnterSIMPIN:                      "ENTER_SIM_PIN",
	RequestEnterSIMPUK:                      "ENTER_SIM_PUK",
	RequestEnterSIMPIN2:                     "ENTER_SIM_PIN2",
	RequestEnterSIMPUK2:                     "ENTER_SIM_PUK2",
	RequestGetCurrentCalls:                  "GET_CURRENT_CALLS",
	RequestDial:                             "DIAL",
	RequestGetIMSI:                          "GET_IMSI",
	RequestHangup:                           "HANGUP",
	RequestHangupWaitingOrBackground:        "HANGUP_WAITING_OR_BACKGROUND",
	RequestSwitchWaitingOrHoldingAndActive:  "SWITCH_WAITING_OR_HOLDING_AND_ACTIVE",
	RequestConference:                       "CONFERENCE",
	RequestUDUB:                             "UDUB",
	RequestLastCallFailCause:                "LAST_CALL_FAIL_CAUSE",
	RequestSignalStrength:                   "SIGNAL_STRENGTH",
	RequestVoiceRegistrationState:           "VOICE_REGISTRATION_STATE",
	RequestDataRegistrationState:            "DATA_REGISTRATION_STATE",
	RequestOperator:                         "OPERATOR",
	RequestRadioPower:                       "RADIO_POWER",
	RequestSIMIO:                            "SIM_IO",
	RequestGetCLIR:                          "GET_CLIR",
	RequestSetCLIR:                          "SET_CLIR",
	RequestGetIMEI:                          "GET_IMEI",
	RequestGetIMEISV:                        "GET_IMEISV",
	RequestAnswer:                           "ANSWER",
	RequestQueryNetworkSelectionMode:        "QUERY_NETWORK_SELECTION_MODE",
	RequestDTMFStart:                        "DTMF_START",
	RequestDTMFStop:                         "DTMF_STOP",
	RequestBasebandVersion:                  "BASEBAND_VERSION",
	RequestSetPreferredNetworkType:          "SET_PREFERRED_NETWORK_TYPE",
	RequestGetPreferredNetworkType:          "GET_PREFERRED_NETWORK_TYPE",
	RequestCDMASetRoamingPreference:         "CDMA_SET_ROAMING_PREFERENCE",
	RequestCDMASetPreferredVoicePrivacyMode: "CDMA_SET_PREFERRED_VOICE_PRIVACY_MODE",
	RequestExitEmergencyCallbackMode:        "EXIT_EMERGENCY_CALLBACK_MODE",
	RequestGetSMSCAddress:                   "GET_SMSC_ADDRESS",
	RequestVoiceRadioTech:                   "VOICE_RADIO_TECH",
}

func (r Request) String() string {
	if name, ok := requestNames[r]; ok {
		return name
	}
	return "REQUEST(" + strconv.Itoa(int(r)) + ")"
}

// Unsolicited is the type of a notification sent without a triggering request.
type Unsolicited int32

const (
	UnsolRadioStateChanged         Unsolicited = 1000
	UnsolCallStateChanged          Unsolicited = 1001
	UnsolVoiceNetworkStateChanged  Unsolicited = 1002
	UnsolNITZTimeReceived          Unsolicited = 1008
	UnsolSignalStrength            Unsolicited = 1009
	UnsolCallRing                  Unsolicited = 1018
	UnsolSIMStatusChanged          Unsolicited = 1019
	UnsolExitEmergencyCallbackMode Unsolicited = 1033
	UnsolRILConnected              Unsolicited = 1034
)

var unsolicitedNames = map[Unsolicited]string{
	UnsolRadioStateChanged:         "RADIO_STATE_CHANGED",
	UnsolCallStateChanged:          "CALL_STATE_CHANGED",
	UnsolVoiceNetworkStateChanged:  "VOICE_NETWORK_STATE_CHANGED",
	UnsolNITZTimeReceived:          "NITZ_TIME_RECEIVED",
	UnsolSignalStrength:            "SIGNAL_STRENGTH",
	UnsolCallRing:                  "CALL_RING",
	UnsolSIMStatusChanged:          "SIM_STATUS_CHANGED",
	UnsolExitEmergencyCallbackMode: "EXIT_EMERGENCY_CALLBACK_MODE",
	UnsolRILConnected:              "RIL_CONNECTED",
}

func (u Unsolicited) String() string {
	if name, ok := unsolicitedNames[u]; ok {
		return name
	}
	return "UNSOL(" + strconv.Itoa(int(u)) + ")"
}

// Error is the error code carried by a solicited response.
type Error int32

const (
	Success             Error = 0
	RadioNotAvailable   Error = 1
	GenericFailure      Error = 2
	RequestNotSupported Error = 6
	SIMAbsent           Error = 11
)

func (e Error) String() string {
	switch e {
	case Success:
		return "SUCCESS"
	case RadioNotAvailable:
		return "RADIO_NOT_AVAILABLE"
	case GenericFailure:
		return "GENERIC_FAILURE"
	case RequestNotSupported:
		return "REQUEST_NOT_SUPPORTED"
	case SIMAbsent:
		return "SIM_ABSENT"
	default:
		return "ERROR(" + strconv.Itoa(int(e)) + ")"
	}
}

// RadioState is the power state of the simulated radio.
type RadioState int32

const (
	RadioOff         RadioState = 0
	RadioUnavailable RadioState = 1
	RadioOn          RadioState = 10
)

func (s RadioState) String() string {
	switch s {
	case RadioOff:
		return "OFF"
	case RadioUnavailable:
		return "UNAVAILABLE"
	case RadioOn:
		return "ON"
	default:
		return "RADIO(" + strconv.Itoa(int(s)) + ")"
	}
}

// CardState is the physical presence state of the SIM card.
type CardState int32

const (
	CardAbsent  CardState = 0
	CardPresent CardState = 1
	CardError   CardState = 2
)

func (s CardState) String() string {
	switch s {
	case CardAbsent:
		return "ABSENT"
	case CardPresent:
		return "PRESENT"
	case CardError:
		return "ERROR"
	default:
		return "CARD(" + strconv.Itoa(int(s)) + ")"
	}
}

// AppState is the lock phase of the SIM application.
type AppState int32

const (
	AppStateNone     AppState = -1
	AppStateUnknown  AppState = 0
	AppStateDetected AppState = 1
	AppStatePIN      AppState = 2
	AppStatePUK      AppState = 3
	AppStatePerso    AppState = 4
	AppStateReady    AppState = 5
	AppStateIllegal  AppState = 6
)

func (s AppState) String() string {
	switch s {
	case AppStateNone:
		return "NONE"
	case AppStateUnknown:
		return "UNKNOWN"
	case AppStateDetected:
		return "DETECTED"
	case AppStatePIN:
		return "PIN"
	case AppStatePUK:
		return "PUK"
	case AppStatePerso:
		return "SUBSCRIPTION_PERSO"
	case AppStateReady:
		return "READY"
	case AppStateIllegal:
		return "ILLEGAL"
	default:
		return "APPSTATE(" + strconv.Itoa(int(s)) + ")"
	}
}

// Card status fields other than card and app state.
const (
	PINStateDisabled   int32 = 3
	AppTypeSIM         int32 = 1
	PersoSubstateReady int32 = 2
)

// CallState is the progress state of a voice call.
type CallState int32

const (
	CallActive   CallState = 0
	CallHolding  CallState = 1
	CallDialing  CallState = 2
	CallAlerting CallState = 3
	CallIncoming CallState = 4
	CallWaiting  CallState = 5
)

func (s CallState) String() string {
	switch s {
	case CallActive:
		return "ACTIVE"
	case CallHolding:
		return "HOLDING"
	case CallDialing:
		return "DIALING"
	case CallAlerting:
		return "ALERTING"
	case CallIncoming:
		return "INCOMING"
	case CallWaiting:
		return "WAITING"
	default:
		return "CALL(" + strconv.Itoa(int(s)) + ")"
	}
}

// Call failure causes reported by LAST_CALL_FAIL_CAUSE.
const (
	CallFailNormal int32 = 16
	CallFailBusy   int32 = 17
)

// Type of address for international numbers.
const TOAInternational int32 = 129

// RegState is a voice or data network registration state.
type RegState int32

const (
	RegNotSearching          RegState = 0
	RegRegisteredHome        RegState = 1
	RegSearching             RegState = 2
	RegDenied                RegState = 3
	RegUnknown               RegState = 4
	RegRegisteredRoaming     RegState = 5
	RegNotSearchingEmergency RegState = 10
	RegSearchingEmergency    RegState = 12
)

func (s RegState) String() string {
	switch s {
	case RegNotSearching:
		return "NOT_SEARCHING"
	case RegRegisteredHome:
		return "REGISTERED_HOME"
	case RegSearching:
		return "SEARCHING"
	case RegDenied:
		return "DENIED"
	case RegUnknown:
		return "UNKNOWN"
	case RegRegisteredRoaming:
		return "REGISTERED_ROAMING"
	case RegNotSearchingEmergency:
		return "NOT_SEARCHING_EMERGENCY_CALLS"
	case RegSearchingEmergency:
		return "SEARCHING_EMERGENCY_CALLS"
	default:
		return "REG(" + strconv.Itoa(int(s)) + ")"
	}
}

// Radio access technologies.
const (
	RadioTechUnknown int32 = 0
	RadioTechUMTS    int32 = 3
	RadioTechHSPA    int32 = 11
	RadioTechLTE     int32 = 14
)

const (
	CLIRDefault                   int32 = 0
	NetworkSelectionModeAutomatic int32 = 0
)

// Elementary file identifiers served by the virtual SIM.
const (
	EFICCID int32 = 0x2FE2
	EFAD    int32 = 0x6FAD
	EFSST   int32 = 0x6F38
	EFMWIS  int32 = 0x6FCA
)

// SIM_IO commands.
const (
	ICCCommandReadBinary  int32 = 0xB0
	ICCCommandReadRecord  int32 = 0xB2
	ICCCommandGetResponse int32 = 0xC0
)

// SIM_IO status words.
const (
	ICCStatusNormalEnding         int32 = 0x90
	ICCStatusErrorWrongParameters int32 = 0x6B
)
