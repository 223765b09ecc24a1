package device

import (
	"errors"
	"fmt"
	"strconv"

	"i4.energy/across/fakeril/ril"
)

// Profile is the identity and factory configuration of a simulated slot.
// Zero fields are filled from DefaultProfile by Normalize.
type Profile struct {
	Slot int `yaml:"slot"`

	// RadioVersion is the RIL version reported on connect. Versions below
	// 5 use the legacy response shapes.
	RadioVersion    int    `yaml:"radio_version"`
	BasebandVersion string `yaml:"baseband_version"`
	RadioTech       int32  `yaml:"radio_tech"`

	IMEI   string `yaml:"imei"`
	IMEISV string `yaml:"imeisv"`
	IMSI   string `yaml:"imsi"`
	ICCID  string `yaml:"iccid"`

	PIN        string `yaml:"pin"`
	PUK        string `yaml:"puk"`
	PINRetries int    `yaml:"pin_retries"`
	PUKRetries int    `yaml:"puk_retries"`

	OperatorShort string `yaml:"operator_short"`
	OperatorLong  string `yaml:"operator_long"`
	MCC           string `yaml:"mcc"`
	MNC           string `yaml:"mnc"`
	LAC           string `yaml:"lac"`
	CID           string `yaml:"cid"`
	SMSC          string `yaml:"smsc"`

	// NITZ is sent once the radio first comes up, in the
	// "yy/mm/dd,hh:mm:ss(+/-)tz,dt" form.
	NITZ string `yaml:"nitz"`
}

// DefaultProfile returns the stock profile for slot. Identities carry the
// slot number so several simulated slots remain distinguishable.
func DefaultProfile(slot int) Profile {
	s := strconv.Itoa(slot)
	return Profile{
		Slot:            slot,
		RadioVersion:    6,
		BasebandVersion: "1.00.B2G.00",
		RadioTech:       ril.RadioTechHSPA,
		IMEI:            "49015420323751" + s,
		IMEISV:          "490154203237510" + s,
		IMSI:            "20815550560123" + s,
		ICCID:           "899110120000320451" + s,
		PIN:             "123" + s,
		PUK:             "5678901" + s,
		PINRetries:      3,
		PUKRetries:      10,
		OperatorShort:   "MoCo" + s,
		OperatorLong:    "MozillaCorpMobile" + s,
		MCC:             "208",
		MNC:             "01",
		LAC:             "4e71",
		CID:             "00d01581",
		SMSC:            "+33123456789",
		NITZ:            "12/02/16,03:36:08-20,00,310410",
	}
}

// ErrInvalidProfile is returned by Normalize for a profile that cannot be
// simulated.
var ErrInvalidProfile = errors.New("invalid device profile")

// Normalize fills unset fields from the default profile of p.Slot and
// validates the result.
func (p Profile) Normalize() (Profile, error) {
	if p.Slot < 0 {
		return p, fmt.Errorf("%w: negative slot %d", ErrInvalidProfile, p.Slot)
	}
	d := DefaultProfile(p.Slot)

	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&p.BasebandVersion, d.BasebandVersion)
	fill(&p.IMEI, d.IMEI)
	fill(&p.IMEISV, d.IMEISV)
	fill(&p.IMSI, d.IMSI)
	fill(&p.ICCID, d.ICCID)
	fill(&p.PIN, d.PIN)
	fill(&p.PUK, d.PUK)
	fill(&p.OperatorShort, d.OperatorShort)
	fill(&p.OperatorLong, d.OperatorLong)
	fill(&p.MCC, d.MCC)
	fill(&p.MNC, d.MNC)
	fill(&p.LAC, d.LAC)
	fill(&p.CID, d.CID)
	fill(&p.SMSC, d.SMSC)
	fill(&p.NITZ, d.NITZ)

	if p.RadioVersion == 0 {
		p.RadioVersion = d.RadioVersion
	}
	if p.RadioTech == 0 {
		p.RadioTech = d.RadioTech
	}
	if p.PINRetries == 0 {
		p.PINRetries = d.PINRetries
	}
	if p.PUKRetries == 0 {
		p.PUKRetries = d.PUKRetries
	}

	if p.RadioVersion < 0 {
		return p, fmt.Errorf("%w: radio version %d", ErrInvalidProfile, p.RadioVersion)
	}
	if p.PINRetries < 0 || p.PUKRetries < 0 {
		return p, fmt.Errorf("%w: negative retry count", ErrInvalidProfile)
	}
	return p, nil
}

