package badgerstore

import (
	"encoding/binary"
	"strconv"
)

// Key namespace:
//
//	u:<username>          -> userRecord (JSON), keyed by the natural username
//	uid:<id>               -> username (plain bytes), reverse index from id to username
//	f:<userID>:<name>      -> fileRecord (JSON)
//	seq:user               -> next user id (8-byte big-endian)
const (
	prefixUser    = "u:"
	prefixUserID  = "uid:"
	prefixFile    = "f:"
	keySeqUser    = "seq:user"
)

func userKey(username string) []byte {
	return []byte(prefixUser + username)
}

func userIDKey(id int64) []byte {
	return []byte(prefixUserID + strconv.FormatInt(id, 10))
}

func fileKey(userID int64, name string) []byte {
	return []byte(prefixFile + strconv.FormatInt(userID, 10) + ":" + name)
}

func filePrefix(userID int64) []byte {
	return []byte(prefixFile + strconv.FormatInt(userID, 10) + ":")
}

func encodeSeq(n int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(n))
	return buf
}

func decodeSeq(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}
