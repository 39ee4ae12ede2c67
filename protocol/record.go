package protocol

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/juju/errors"
)

// NOWRECORD field offsets.
const (
	offWindDirection   = 0x28
	offInsideHumidity  = 0x2a
	offOutsideHumidity = 0x2b
	offInsideTemp      = 0x2c
	offPressure        = 0x30
	offBarometer       = 0x34
	offOutsideTemp     = 0x38
	offDewpoint        = 0x3c
	offWindChill       = 0x40
	offWindSpeed       = 0x44
	offWindGust        = 0x48
	offRainRate        = 0x4c
	offDailyRain       = 0x50
	offWeeklyRain      = 0x54
	offMonthlyRain     = 0x58
	offYearlyRain      = 0x5c
	offRadiation       = 0x60
	offUVIndex         = 0x64
	offHeatIndex       = 0x65

	// Last byte read by decoder is heat index.
	NowRecordMinSize = offHeatIndex + 1
	// Wire size including 2 trailing reserved bytes.
	NowRecordSize = NowRecordMinSize + 2
)

type Wind struct {
	Direction int16   `json:"direction"`
	Chill     float32 `json:"chill"`
	Speed     float32 `json:"speed"`
	Gust      float32 `json:"gust"`
}

type TemperatureHumidity struct {
	Temperature float32 `json:"temperature"`
	Humidity    uint8   `json:"humidity"`
}

// Monthly total is transmitted but not kept.
type Rain struct {
	Rate   float32 `json:"rate"`
	Daily  float32 `json:"daily"`
	Weekly float32 `json:"weekly"`
	Yearly float32 `json:"yearly"`
}

// WeatherRecord is one NOWRECORD snapshot. Values are as reported by console,
// units depend on console display settings.
type WeatherRecord struct {
	Header    RecordHeader        `json:"header"`
	Wind      Wind                `json:"wind"`
	Inside    TemperatureHumidity `json:"inside"`
	Outside   TemperatureHumidity `json:"outside"`
	Pressure  float32             `json:"pressure"`
	Barometer float32             `json:"barometer"`
	Dewpoint  float32             `json:"dewpoint"`
	Rain      Rain                `json:"rain"`
	Radiation float32             `json:"radiation"`
	UVIndex   uint8               `json:"uv_index"`
	HeatIndex uint8               `json:"heat_index"`
}

var _ Response = &WeatherRecord{}

func (r *WeatherRecord) ResponseHeader() RecordHeader { return r.Header }

func (r *WeatherRecord) String() string {
	return fmt.Sprintf("(device=%s in=%.1f/%d%% out=%.1f/%d%% dew=%.1f pressure=%.1f baro=%.1f wind=%d/%.1f/%.1f chill=%.1f rain=%.1f/%.1f/%.1f/%.1f rad=%.1f uv=%d heat=%d)",
		r.Header.DeviceName,
		r.Inside.Temperature, r.Inside.Humidity,
		r.Outside.Temperature, r.Outside.Humidity,
		r.Dewpoint, r.Pressure, r.Barometer,
		r.Wind.Direction, r.Wind.Speed, r.Wind.Gust, r.Wind.Chill,
		r.Rain.Rate, r.Rain.Daily, r.Rain.Weekly, r.Rain.Yearly,
		r.Radiation, r.UVIndex, r.HeatIndex)
}

// DecodeNowRecord reads every field at its fixed offset, no unit conversion.
// b must hold at least NowRecordMinSize bytes. Header argument is not checked,
// use DecodeResponse for that.
func DecodeNowRecord(b []byte) (*WeatherRecord, error) {
	if len(b) < NowRecordMinSize {
		return nil, errors.Annotatef(ErrShortBuffer, "nowrecord length=%d min=%d", len(b), NowRecordMinSize)
	}
	h, err := DecodeHeader(b)
	if err != nil {
		return nil, errors.Annotate(err, "nowrecord")
	}
	r := &WeatherRecord{
		Header: h,
		Wind: Wind{
			Direction: int16(binary.LittleEndian.Uint16(b[offWindDirection:])),
			Chill:     getFloat(b, offWindChill),
			Speed:     getFloat(b, offWindSpeed),
			Gust:      getFloat(b, offWindGust),
		},
		Inside: TemperatureHumidity{
			Temperature: getFloat(b, offInsideTemp),
			Humidity:    b[offInsideHumidity],
		},
		Outside: TemperatureHumidity{
			Temperature: getFloat(b, offOutsideTemp),
			Humidity:    b[offOutsideHumidity],
		},
		Pressure:  getFloat(b, offPressure),
		Barometer: getFloat(b, offBarometer),
		Dewpoint:  getFloat(b, offDewpoint),
		Rain: Rain{
			Rate:   getFloat(b, offRainRate),
			Daily:  getFloat(b, offDailyRain),
			Weekly: getFloat(b, offWeeklyRain),
			Yearly: getFloat(b, offYearlyRain),
		},
		Radiation: getFloat(b, offRadiation),
		UVIndex:   b[offUVIndex],
		HeatIndex: b[offHeatIndex],
	}
	return r, nil
}

// Inverse of DecodeNowRecord, used by console simulators and tests.
// Reserved bytes and monthly rain are written as zero.
func (r *WeatherRecord) Encode() ([NowRecordSize]byte, error) {
	var b [NowRecordSize]byte
	if err := r.Header.encodeTo(b[:HeaderSize]); err != nil {
		return b, err
	}
	binary.LittleEndian.PutUint16(b[offWindDirection:], uint16(r.Wind.Direction))
	b[offInsideHumidity] = r.Inside.Humidity
	b[offOutsideHumidity] = r.Outside.Humidity
	putFloat(b[:], offInsideTemp, r.Inside.Temperature)
	putFloat(b[:], offPressure, r.Pressure)
	putFloat(b[:], offBarometer, r.Barometer)
	putFloat(b[:], offOutsideTemp, r.Outside.Temperature)
	putFloat(b[:], offDewpoint, r.Dewpoint)
	putFloat(b[:], offWindChill, r.Wind.Chill)
	putFloat(b[:], offWindSpeed, r.Wind.Speed)
	putFloat(b[:], offWindGust, r.Wind.Gust)
	putFloat(b[:], offRainRate, r.Rain.Rate)
	putFloat(b[:], offDailyRain, r.Rain.Daily)
	putFloat(b[:], offWeeklyRain, r.Rain.Weekly)
	putFloat(b[:], offYearlyRain, r.Rain.Yearly)
	putFloat(b[:], offRadiation, r.Radiation)
	b[offUVIndex] = r.UVIndex
	b[offHeatIndex] = r.HeatIndex
	return b, nil
}

func getFloat(b []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
}

func putFloat(b []byte, off int, v float32) {
	binary.LittleEndian.PutUint32(b[off:], math.Float32bits(v))
}
