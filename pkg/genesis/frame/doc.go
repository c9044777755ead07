// Package frame implements the byte-level framing of the Genesis command protocol.
package frame

// A request is framed as
//
//	STX | channel | device(2) | mnemonic params,... | ETX | xor
//
// and the instrument answers with a 6-byte acknowledgment followed by a
// response
//
//	STX | channel+16 | device(2) | status | content | ETX | xor
//
// The checksum is the XOR of every byte from STX through ETX. There is no
// type tag on the wire: an acknowledgment is recognized by its length only.
