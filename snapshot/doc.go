// Package snapshot ships serialized indexes through a blobstore.Store.
//
// Put serializes any Source (an *typedann.Index satisfies it), wraps the
// bytes in a checksummed frame and optionally compresses them. Get reverses
// the process and returns bytes ready for LoadFromBuffer or ViewFromBuffer.
//
//	err := snapshot.Put(ctx, store, "products.tann", idx, snapshot.WithCodec(snapshot.CodecZSTD))
//
//	data, err := snapshot.Get(ctx, store, "products.tann")
//	err = replica.ViewFromBuffer(data)
//
// Frame layout (little endian):
//
//	[0:8]   magic "TANNSNAP"
//	[8:10]  format version
//	[10]    codec
//	[11]    reserved
//	[12:16] CRC32C of the uncompressed payload
//	[16:24] uncompressed length
//	[24:32] stored length
//	[32:]   payload
package snapshot
