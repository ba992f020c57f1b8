package beacon

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Wire protocol constants. All multi-byte fields are little-endian, packed
// with no padding, and every inbound message ends with the stop byte.
const (
	MessageClass = 0x8e
	StopByte     = 0x1b

	SubCmdDistanceResult = 0x01
	SubCmdGridSurvey     = 0x02

	// GridSurveySize is the full wire size of a grid survey message.
	GridSurveySize = 163
	// DistanceResultSize is the full wire size of a distance result message.
	DistanceResultSize = 51

	// MaxAnchors is the largest anchor layout a grid survey can describe.
	MaxAnchors = 9
	// distanceSlots is the on-wire distance array length; only the first
	// anchor-count entries carry data.
	distanceSlots = 12

	// CommandSize is the fixed outbound command frame length.
	CommandSize = 20

	OpcodeStopRanging = 0x00
	OpcodeGridSurvey  = 0x01
	OpcodePureRanging = 0x02
)

var (
	ErrFrameSize = errors.New("unexpected frame size")
	ErrStopByte  = errors.New("bad stop byte")
)

// GridSurveyMessage is the decoded one-time survey response: the beacon's
// anchor layout and reference coordinates.
type GridSurveyMessage struct {
	Cmd     uint8
	SubCmd  uint8
	DataLen uint8

	GridUUID      uuid.UUID
	InitiatorTime uint16
	AnchorCount   uint8

	GPSLatitude  float64
	GPSLongitude float64
	GPSAltitude  float32

	TargetRef [3]float32
	AnchorPos [MaxAnchors][3]float32
}

// DistanceResultMessage is the decoded continuous ranging response.
type DistanceResultMessage struct {
	Cmd     uint8
	SubCmd  uint8
	DataLen uint8
	Status  uint8

	PosX      float32
	PosY      float32
	PosZ      float32
	YawOffset float32

	Counter    uint16
	TimeOffset uint32

	// AnchorDistance holds raw centimeter readings for every wire slot.
	AnchorDistance [distanceSlots]uint16
}

// DecodeGridSurvey validates and decodes a grid survey frame. Acceptance
// requires the exact wire size and the stop byte; header fields are decoded
// but not checked, matching the beacon firmware's loose framing.
func DecodeGridSurvey(buf []byte) (*GridSurveyMessage, error) {
	if len(buf) != GridSurveySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrFrameSize, len(buf), GridSurveySize)
	}
	if buf[GridSurveySize-1] != StopByte {
		return nil, fmt.Errorf("%w: got 0x%02x, want 0x%02x", ErrStopByte, buf[GridSurveySize-1], StopByte)
	}

	msg := &GridSurveyMessage{
		Cmd:     buf[0],
		SubCmd:  buf[1],
		DataLen: buf[2],
	}

	copy(msg.GridUUID[:], buf[3:19])
	msg.InitiatorTime = binary.LittleEndian.Uint16(buf[19:21])
	msg.AnchorCount = buf[21]

	msg.GPSLatitude = math.Float64frombits(binary.LittleEndian.Uint64(buf[22:30]))
	msg.GPSLongitude = math.Float64frombits(binary.LittleEndian.Uint64(buf[30:38]))
	msg.GPSAltitude = float32FromLE(buf[38:42])

	for axis := 0; axis < 3; axis++ {
		msg.TargetRef[axis] = float32FromLE(buf[42+4*axis : 46+4*axis])
	}

	for i := 0; i < MaxAnchors; i++ {
		base := 54 + 12*i
		for axis := 0; axis < 3; axis++ {
			msg.AnchorPos[i][axis] = float32FromLE(buf[base+4*axis : base+4*axis+4])
		}
	}

	return msg, nil
}

// DecodeDistanceResult validates and decodes a distance result frame under
// the same acceptance rule as DecodeGridSurvey.
func DecodeDistanceResult(buf []byte) (*DistanceResultMessage, error) {
	if len(buf) != DistanceResultSize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrFrameSize, len(buf), DistanceResultSize)
	}
	if buf[DistanceResultSize-1] != StopByte {
		return nil, fmt.Errorf("%w: got 0x%02x, want 0x%02x", ErrStopByte, buf[DistanceResultSize-1], StopByte)
	}

	msg := &DistanceResultMessage{
		Cmd:     buf[0],
		SubCmd:  buf[1],
		DataLen: buf[2],
		Status:  buf[3],

		PosX:      float32FromLE(buf[4:8]),
		PosY:      float32FromLE(buf[8:12]),
		PosZ:      float32FromLE(buf[12:16]),
		YawOffset: float32FromLE(buf[16:20]),

		Counter:    binary.LittleEndian.Uint16(buf[20:22]),
		TimeOffset: binary.LittleEndian.Uint32(buf[22:26]),
	}

	for i := 0; i < distanceSlots; i++ {
		msg.AnchorDistance[i] = binary.LittleEndian.Uint16(buf[26+2*i : 28+2*i])
	}

	return msg, nil
}

// Command builds a 20-byte outbound command frame. Every command carries a
// 16-byte grid UUID; for stop and pure ranging the beacon ignores it, for
// the grid survey request it selects the grid and is firmware specific.
func Command(opcode uint8, gridUUID uuid.UUID) []byte {
	cmd := make([]byte, CommandSize)
	cmd[0] = MessageClass
	cmd[1] = 0x00
	cmd[2] = 0x11 // opcode byte plus 16-byte UUID
	cmd[3] = opcode
	copy(cmd[4:], gridUUID[:])
	return cmd
}

func float32FromLE(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
