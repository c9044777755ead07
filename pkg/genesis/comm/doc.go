// Package comm provides the transport engine of the Genesis protocol.
package comm

// The serial line is half-duplex and shared by all sub-devices of the
// instrument. Exchanges are tagged with a one-byte channel so replies can be
// correlated with requests:
//
//   - a solo exchange borrows a channel from the ChannelPool, writes one
//     request and waits for an acknowledgment and a response;
//   - a group exchange writes several requests on one caller supplied channel
//     back-to-back and then collects acknowledgments and responses in any
//     order until every device has answered.
//
// Every acknowledgment is echoed back unchanged. Any channel mismatch or
// non-zero status closes the transport; there is no retry at this level.
