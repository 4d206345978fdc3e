// Package bridge is the foreign-call boundary between a host application and
// the crypto core. It only translates: JSON arguments in, core call, JSON
// result or typed error out.
//
// All binary values (keys, salts, nonces, ciphertext) cross the boundary as
// standard padded base64 text, including the output of generate_key.
//
// A session is a stream of newline-delimited requests
//
//	{"id":"1","fn":"encrypt","args":{"plaintext":"hi","key":"<base64>"}}
//
// answered by one response line each, in completion order:
//
//	{"id":"1","ok":true,"result":{"nonce":"...","cipher":"..."}}
//	{"id":"2","ok":false,"error":{"kind":"recoverable","code":"invalid_key_length","message":"..."}}
package bridge
