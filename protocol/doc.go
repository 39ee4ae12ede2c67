// Package protocol encodes and decodes WS-1001 weather station console frames.
//
// Every frame starts with a 32 byte header of three NUL-padded ASCII fields:
// device:8 command:8 argument:16
// Commands sent to the console are header + 8 reserved zero bytes.
// NOWRECORD responses carry little-endian fields at fixed offsets:
//
//	0x28 wind direction    int16
//	0x2a inside humidity   u8
//	0x2b outside humidity  u8
//	0x2c inside temp       f32
//	0x30 pressure          f32
//	0x34 barometer         f32
//	0x38 outside temp      f32
//	0x3c dew point         f32
//	0x40 wind chill        f32
//	0x44 wind speed        f32
//	0x48 wind gust         f32
//	0x4c rain rate         f32
//	0x50 daily rain        f32
//	0x54 weekly rain       f32
//	0x58 monthly rain      f32 (ignored)
//	0x5c yearly rain       f32
//	0x60 solar radiation   f32
//	0x64 UV index          u8
//	0x65 heat index        u8
//	0x66 reserved          2 bytes
//
// Package does no I/O except FrameReader, which only splits a byte stream into frames.
package protocol
