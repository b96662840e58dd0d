// Package resource provides AutoResource, a reference-counted handle for cheap
// resource values such as descriptors and GPU or font handles.
//
// Unlike refcount.SharedCount there is no weak side: one int32 counter, taken
// from an alloc.Context's counter pool, tracks how many handles share a value.
// Finalizer and null policies are type parameters, so a handle is a value
// plus a pointer.
//
//	h := resource.NewHandle(ctx, tex, refcount.FinalizerFunc[gpu.Texture](gpu.Delete))
//	h2 := h.Clone()
//	h.Release()
//	h2.Release() // gpu.Delete(tex)
package resource
