package starcentroids

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// FITSMetadata holds parsed FITS header key-value pairs.
type FITSMetadata struct {
	Headers map[string]string
}

// NewFITSMetadata creates an empty FITSMetadata.
func NewFITSMetadata() *FITSMetadata {
	return &FITSMetadata{Headers: make(map[string]string)}
}

func (m *FITSMetadata) GetString(key string) string {
	if v, ok := m.Headers[strings.ToUpper(key)]; ok {
		return v
	}
	return ""
}

func (m *FITSMetadata) GetDouble(key string) (float64, bool) {
	v, ok := m.Headers[strings.ToUpper(key)]
	if !ok {
		return 0, false
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return d, true
}

func (m *FITSMetadata) GetInt(key string) (int, bool) {
	v, ok := m.Headers[strings.ToUpper(key)]
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return i, true
}

func (m *FITSMetadata) GetDateTime(key string) (time.Time, bool) {
	v, ok := m.Headers[strings.ToUpper(key)]
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Common header accessors.
func (m *FITSMetadata) ObjectName() string    { return m.GetString("OBJECT") }
func (m *FITSMetadata) ImageType() string     { return m.GetString("IMAGETYP") }
func (m *FITSMetadata) CameraName() string    { return m.GetString("INSTRUME") }
func (m *FITSMetadata) Filter() string        { return m.GetString("FILTER") }
func (m *FITSMetadata) TelescopeName() string { return m.GetString("TELESCOP") }

func (m *FITSMetadata) ExposureTime() (float64, bool) {
	if v, ok := m.GetDouble("EXPTIME"); ok {
		return v, true
	}
	return m.GetDouble("EXPOSURE")
}

// FITSImage holds the primary HDU of a FITS file as a 2D grid of physical
// pixel values (BSCALE and BZERO already applied).
type FITSImage struct {
	Data     *Grid
	BitPix   int
	Metadata *FITSMetadata
}

// ReadFITS reads the primary image HDU from a FITS file.
func ReadFITS(filePath string) (*FITSImage, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening FITS file: %w", err)
	}
	defer f.Close()
	return readFITS(f)
}

// ReadFITSFromBytes reads the primary image HDU from an in-memory FITS file.
func ReadFITSFromBytes(data []byte) (*FITSImage, error) {
	return readFITS(bytes.NewReader(data))
}

func readFITS(r io.Reader) (*FITSImage, error) {

	var bitpix, naxis, width, height int
	bzero := 0.0
	bscale := 1.0
	headerDone := false
	metadata := NewFITSMetadata()

	recordBuf := make([]byte, 80)

	for !headerDone {
		for i := 0; i < 36; i++ {
			_, err := io.ReadFull(r, recordBuf)
			if err != nil {
				return nil, fmt.Errorf("reading FITS header record: %w", err)
			}
			record := string(recordBuf)
			keyword := strings.TrimSpace(record[:8])

			if keyword == "END" {
				headerDone = true
				remaining := 35 - i
				if remaining > 0 {
					skipBuf := make([]byte, remaining*80)
					io.ReadFull(r, skipBuf)
				}
				break
			}

			if len(record) > 10 && record[8] == '=' && record[9] == ' ' {
				rawValue := strings.TrimSpace(strings.SplitN(record[10:], "/", 2)[0])
				parsedValue := parseFITSValue(rawValue)

				if keyword != "" && parsedValue != "" {
					metadata.Headers[strings.ToUpper(keyword)] = parsedValue
				}

				switch keyword {
				case "BITPIX":
					bitpix, _ = strconv.Atoi(strings.TrimSpace(rawValue))
				case "NAXIS":
					naxis, _ = strconv.Atoi(strings.TrimSpace(rawValue))
				case "NAXIS1":
					width, _ = strconv.Atoi(strings.TrimSpace(rawValue))
				case "NAXIS2":
					height, _ = strconv.Atoi(strings.TrimSpace(rawValue))
				case "BZERO":
					bzero, _ = strconv.ParseFloat(strings.TrimSpace(rawValue), 64)
				case "BSCALE":
					bscale, _ = strconv.ParseFloat(strings.TrimSpace(rawValue), 64)
				}
			}
		}
	}

	if naxis < 2 || width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid FITS: NAXIS=%d, NAXIS1=%d, NAXIS2=%d: %w", naxis, width, height, ErrInvalidInput)
	}

	numPixels := width * height
	values := make([]float64, numPixels)

	switch bitpix {
	case 8:
		rawBytes := make([]byte, numPixels)
		if _, err := io.ReadFull(r, rawBytes); err != nil {
			return nil, fmt.Errorf("reading 8-bit pixel data: %w", err)
		}
		for i := 0; i < numPixels; i++ {
			values[i] = float64(rawBytes[i])*bscale + bzero
		}

	case 16:
		rawBytes := make([]byte, numPixels*2)
		if _, err := io.ReadFull(r, rawBytes); err != nil {
			return nil, fmt.Errorf("reading 16-bit pixel data: %w", err)
		}
		for i := 0; i < numPixels; i++ {
			signedVal := int16(binary.BigEndian.Uint16(rawBytes[i*2:]))
			values[i] = float64(signedVal)*bscale + bzero
		}

	case 32:
		rawBytes := make([]byte, numPixels*4)
		if _, err := io.ReadFull(r, rawBytes); err != nil {
			return nil, fmt.Errorf("reading 32-bit pixel data: %w", err)
		}
		for i := 0; i < numPixels; i++ {
			intVal := int32(binary.BigEndian.Uint32(rawBytes[i*4:]))
			values[i] = float64(intVal)*bscale + bzero
		}

	case -32:
		rawBytes := make([]byte, numPixels*4)
		if _, err := io.ReadFull(r, rawBytes); err != nil {
			return nil, fmt.Errorf("reading -32 float pixel data: %w", err)
		}
		for i := 0; i < numPixels; i++ {
			intBits := binary.BigEndian.Uint32(rawBytes[i*4:])
			values[i] = float64(math.Float32frombits(intBits))*bscale + bzero
		}

	case -64:
		rawBytes := make([]byte, numPixels*8)
		if _, err := io.ReadFull(r, rawBytes); err != nil {
			return nil, fmt.Errorf("reading -64 float pixel data: %w", err)
		}
		for i := 0; i < numPixels; i++ {
			intBits := binary.BigEndian.Uint64(rawBytes[i*8:])
			values[i] = math.Float64frombits(intBits)*bscale + bzero
		}

	default:
		return nil, fmt.Errorf("unsupported BITPIX: %d: %w", bitpix, ErrInvalidInput)
	}

	grid, err := GridFromSlice(values, height, width)
	if err != nil {
		return nil, err
	}
	return &FITSImage{
		Data:     grid,
		BitPix:   bitpix,
		Metadata: metadata,
	}, nil
}

func parseFITSValue(rawValue string) string {
	if rawValue == "" {
		return ""
	}
	if rawValue == "T" {
		return "True"
	}
	if rawValue == "F" {
		return "False"
	}
	if strings.HasPrefix(rawValue, "'") {
		endQuote := strings.LastIndex(rawValue, "'")
		if endQuote > 0 {
			return strings.TrimRight(rawValue[1:endQuote], " ")
		}
		return strings.TrimLeft(strings.TrimRight(rawValue, " "), "'")
	}
	return rawValue
}
