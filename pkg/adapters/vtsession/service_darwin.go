//go:build darwin && cgo

package vtsession

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework VideoToolbox -framework CoreMedia -framework CoreFoundation -framework CoreVideo

#include <VideoToolbox/VideoToolbox.h>
#include <CoreMedia/CoreMedia.h>
#include <CoreFoundation/CoreFoundation.h>
#include <CoreVideo/CoreVideo.h>
#include <stdint.h>
#include <stdlib.h>
#include <string.h>

extern void goVTCompressionOutputCallback(uintptr_t outputCallbackRefCon, uintptr_t sourceFrameRefCon, int32_t status, uint32_t infoFlags, CMSampleBufferRef sampleBuffer);

static void vtOutputCallback(void *outputCallbackRefCon,
                             void *sourceFrameRefCon,
                             OSStatus status,
                             VTEncodeInfoFlags infoFlags,
                             CMSampleBufferRef sampleBuffer) {
    goVTCompressionOutputCallback((uintptr_t)outputCallbackRefCon,
                                  (uintptr_t)sourceFrameRefCon,
                                  (int32_t)status,
                                  (uint32_t)infoFlags,
                                  sampleBuffer);
}

enum {
    PROP_REAL_TIME = 0,
    PROP_ALLOW_FRAME_REORDERING,
    PROP_PROFILE_LEVEL,
    PROP_ENTROPY_MODE,
    PROP_PIXEL_TRANSFER,
    PROP_MAX_KEY_FRAME_INTERVAL,
    PROP_MAX_KEY_FRAME_INTERVAL_DURATION,
    PROP_AVERAGE_BIT_RATE,
    PROP_EXPECTED_FRAME_RATE,
    PROP_DATA_RATE_LIMITS,
};

static CFStringRef vtPropertyKey(int prop) {
    switch (prop) {
    case PROP_REAL_TIME: return kVTCompressionPropertyKey_RealTime;
    case PROP_ALLOW_FRAME_REORDERING: return kVTCompressionPropertyKey_AllowFrameReordering;
    case PROP_PROFILE_LEVEL: return kVTCompressionPropertyKey_ProfileLevel;
    case PROP_ENTROPY_MODE: return kVTCompressionPropertyKey_H264EntropyMode;
    case PROP_PIXEL_TRANSFER: return kVTCompressionPropertyKey_PixelTransferProperties;
    case PROP_MAX_KEY_FRAME_INTERVAL: return kVTCompressionPropertyKey_MaxKeyFrameInterval;
    case PROP_MAX_KEY_FRAME_INTERVAL_DURATION: return kVTCompressionPropertyKey_MaxKeyFrameIntervalDuration;
    case PROP_AVERAGE_BIT_RATE: return kVTCompressionPropertyKey_AverageBitRate;
    case PROP_EXPECTED_FRAME_RATE: return kVTCompressionPropertyKey_ExpectedFrameRate;
    case PROP_DATA_RATE_LIMITS: return kVTCompressionPropertyKey_DataRateLimits;
    }
    return NULL;
}

static OSStatus vtCreate(int width, int height, int preferHardware, uintptr_t refCon, VTCompressionSessionRef *out) {
    CFMutableDictionaryRef encoderSpec = CFDictionaryCreateMutable(
        kCFAllocatorDefault, 0,
        &kCFTypeDictionaryKeyCallBacks,
        &kCFTypeDictionaryValueCallBacks);
    CFDictionarySetValue(encoderSpec,
        kVTVideoEncoderSpecification_EnableHardwareAcceleratedVideoEncoder,
        preferHardware ? kCFBooleanTrue : kCFBooleanFalse);

    int32_t w = width;
    int32_t h = height;
    uint32_t pixelFormat = kCVPixelFormatType_32BGRA;
    CFNumberRef widthNum = CFNumberCreate(kCFAllocatorDefault, kCFNumberSInt32Type, &w);
    CFNumberRef heightNum = CFNumberCreate(kCFAllocatorDefault, kCFNumberSInt32Type, &h);
    CFNumberRef pfNum = CFNumberCreate(kCFAllocatorDefault, kCFNumberSInt32Type, &pixelFormat);
    CFDictionaryRef ioSurfProps = CFDictionaryCreate(kCFAllocatorDefault, NULL, NULL, 0,
        &kCFTypeDictionaryKeyCallBacks, &kCFTypeDictionaryValueCallBacks);

    const void *attrKeys[] = {
        kCVPixelBufferPixelFormatTypeKey,
        kCVPixelBufferWidthKey,
        kCVPixelBufferHeightKey,
        kCVPixelBufferIOSurfacePropertiesKey,
    };
    const void *attrVals[] = { pfNum, widthNum, heightNum, ioSurfProps };
    CFDictionaryRef attrs = CFDictionaryCreate(kCFAllocatorDefault, attrKeys, attrVals, 4,
        &kCFTypeDictionaryKeyCallBacks, &kCFTypeDictionaryValueCallBacks);

    CFRelease(widthNum);
    CFRelease(heightNum);
    CFRelease(pfNum);
    CFRelease(ioSurfProps);

    OSStatus status = VTCompressionSessionCreate(
        kCFAllocatorDefault, width, height, kCMVideoCodecType_H264,
        encoderSpec, attrs, kCFAllocatorDefault,
        vtOutputCallback, (void *)refCon, out);

    CFRelease(attrs);
    CFRelease(encoderSpec);
    return status;
}

static OSStatus vtSetBool(VTCompressionSessionRef s, int prop, int v) {
    return VTSessionSetProperty(s, vtPropertyKey(prop), v ? kCFBooleanTrue : kCFBooleanFalse);
}

static OSStatus vtSetInt(VTCompressionSessionRef s, int prop, int32_t v) {
    CFNumberRef n = CFNumberCreate(kCFAllocatorDefault, kCFNumberSInt32Type, &v);
    OSStatus st = VTSessionSetProperty(s, vtPropertyKey(prop), n);
    CFRelease(n);
    return st;
}

static OSStatus vtSetDouble(VTCompressionSessionRef s, int prop, double v) {
    CFNumberRef n = CFNumberCreate(kCFAllocatorDefault, kCFNumberFloat64Type, &v);
    OSStatus st = VTSessionSetProperty(s, vtPropertyKey(prop), n);
    CFRelease(n);
    return st;
}

static OSStatus vtSetProfileLevel(VTCompressionSessionRef s, int profile) {
    CFStringRef v = NULL;
    switch (profile) {
    case 0: v = kVTProfileLevel_H264_Baseline_AutoLevel; break;
    case 1: v = kVTProfileLevel_H264_Baseline_3_1; break;
    case 2: v = kVTProfileLevel_H264_Main_AutoLevel; break;
    case 3: v = kVTProfileLevel_H264_Main_3_1; break;
    case 4: v = kVTProfileLevel_H264_Main_4_1; break;
    case 5: v = kVTProfileLevel_H264_High_AutoLevel; break;
    case 6: v = kVTProfileLevel_H264_High_4_1; break;
    default: return kVTParameterErr;
    }
    return VTSessionSetProperty(s, kVTCompressionPropertyKey_ProfileLevel, v);
}

static OSStatus vtSetEntropyMode(VTCompressionSessionRef s, int cabac) {
    return VTSessionSetProperty(s, kVTCompressionPropertyKey_H264EntropyMode,
        cabac ? kVTH264EntropyMode_CABAC : kVTH264EntropyMode_CAVLC);
}

static OSStatus vtSetScalingMode(VTCompressionSessionRef s, int mode) {
    CFStringRef v = NULL;
    switch (mode) {
    case 0: v = kVTScalingMode_Normal; break;
    case 1: v = kVTScalingMode_Letterbox; break;
    case 2: v = kVTScalingMode_Trim; break;
    case 3: v = kVTScalingMode_CropSourceToCleanAperture; break;
    default: return kVTParameterErr;
    }
    const void *keys[] = { kVTPixelTransferPropertyKey_ScalingMode };
    const void *vals[] = { v };
    CFDictionaryRef dict = CFDictionaryCreate(kCFAllocatorDefault, keys, vals, 1,
        &kCFTypeDictionaryKeyCallBacks, &kCFTypeDictionaryValueCallBacks);
    OSStatus st = VTSessionSetProperty(s, kVTCompressionPropertyKey_PixelTransferProperties, dict);
    CFRelease(dict);
    return st;
}

static OSStatus vtSetDataRateLimits(VTCompressionSessionRef s, double bytes, double seconds) {
    CFNumberRef b = CFNumberCreate(kCFAllocatorDefault, kCFNumberFloat64Type, &bytes);
    CFNumberRef sec = CFNumberCreate(kCFAllocatorDefault, kCFNumberFloat64Type, &seconds);
    const void *vals[] = { b, sec };
    CFArrayRef arr = CFArrayCreate(kCFAllocatorDefault, vals, 2, &kCFTypeArrayCallBacks);
    OSStatus st = VTSessionSetProperty(s, kVTCompressionPropertyKey_DataRateLimits, arr);
    CFRelease(arr);
    CFRelease(b);
    CFRelease(sec);
    return st;
}

static int vtSupportsProperty(VTCompressionSessionRef s, int prop) {
    CFDictionaryRef dict = NULL;
    if (VTSessionCopySupportedPropertyDictionary(s, &dict) != noErr || dict == NULL) {
        return 0;
    }
    int ok = CFDictionaryContainsKey(dict, vtPropertyKey(prop)) ? 1 : 0;
    CFRelease(dict);
    return ok;
}

static OSStatus vtPrepare(VTCompressionSessionRef s) {
    return VTCompressionSessionPrepareToEncodeFrames(s);
}

// vtEncodeRGBA copies RGBA pixels into a BGRA pixel buffer and submits it.
// Buffers matching the session size come from the session pool; others are
// scaled by the encoder's pixel transfer.
static OSStatus vtEncodeRGBA(VTCompressionSessionRef s, const uint8_t *rgba,
                             int width, int height, int stride,
                             int64_t ptsNs, int64_t durNs, int forceKeyFrame,
                             uintptr_t frameRefCon, uint32_t *infoOut) {
    CVPixelBufferRef pixelBuffer = NULL;
    CVReturn cvr = kCVReturnError;

    CVPixelBufferPoolRef pool = VTCompressionSessionGetPixelBufferPool(s);
    if (pool != NULL) {
        cvr = CVPixelBufferPoolCreatePixelBuffer(kCFAllocatorDefault, pool, &pixelBuffer);
        if (cvr == kCVReturnSuccess &&
            ((int)CVPixelBufferGetWidth(pixelBuffer) != width ||
             (int)CVPixelBufferGetHeight(pixelBuffer) != height)) {
            CVPixelBufferRelease(pixelBuffer);
            pixelBuffer = NULL;
            cvr = kCVReturnError;
        }
    }
    if (cvr != kCVReturnSuccess) {
        cvr = CVPixelBufferCreate(kCFAllocatorDefault, width, height,
            kCVPixelFormatType_32BGRA, NULL, &pixelBuffer);
    }
    if (cvr != kCVReturnSuccess || pixelBuffer == NULL) {
        return kVTAllocationFailedErr;
    }

    CVPixelBufferLockBaseAddress(pixelBuffer, 0);
    uint8_t *base = (uint8_t *)CVPixelBufferGetBaseAddress(pixelBuffer);
    size_t bytesPerRow = CVPixelBufferGetBytesPerRow(pixelBuffer);
    for (int y = 0; y < height; y++) {
        const uint8_t *src = rgba + (size_t)y * stride;
        uint8_t *dst = base + (size_t)y * bytesPerRow;
        for (int x = 0; x < width; x++) {
            dst[x * 4 + 0] = src[x * 4 + 2];
            dst[x * 4 + 1] = src[x * 4 + 1];
            dst[x * 4 + 2] = src[x * 4 + 0];
            dst[x * 4 + 3] = src[x * 4 + 3];
        }
    }
    CVPixelBufferUnlockBaseAddress(pixelBuffer, 0);

    CFMutableDictionaryRef frameProps = NULL;
    if (forceKeyFrame) {
        frameProps = CFDictionaryCreateMutable(kCFAllocatorDefault, 1,
            &kCFTypeDictionaryKeyCallBacks, &kCFTypeDictionaryValueCallBacks);
        CFDictionarySetValue(frameProps, kVTEncodeFrameOptionKey_ForceKeyFrame, kCFBooleanTrue);
    }

    VTEncodeInfoFlags info = 0;
    OSStatus status = VTCompressionSessionEncodeFrame(s, pixelBuffer,
        CMTimeMake(ptsNs, 1000000000),
        durNs > 0 ? CMTimeMake(durNs, 1000000000) : kCMTimeInvalid,
        frameProps, (void *)frameRefCon, &info);

    if (frameProps) CFRelease(frameProps);
    CVPixelBufferRelease(pixelBuffer);
    *infoOut = (uint32_t)info;
    return status;
}

static OSStatus vtComplete(VTCompressionSessionRef s) {
    return VTCompressionSessionCompleteFrames(s, kCMTimeInvalid);
}

static void vtInvalidate(VTCompressionSessionRef s) {
    VTCompressionSessionInvalidate(s);
    CFRelease(s);
}

static int vtSampleIsKeyframe(CMSampleBufferRef sb) {
    CFArrayRef attachments = CMSampleBufferGetSampleAttachmentsArray(sb, false);
    if (attachments != NULL && CFArrayGetCount(attachments) > 0) {
        CFDictionaryRef attachment = CFArrayGetValueAtIndex(attachments, 0);
        CFBooleanRef notSync = CFDictionaryGetValue(attachment, kCMSampleAttachmentKey_NotSync);
        if (notSync != NULL && CFBooleanGetValue(notSync)) {
            return 0;
        }
    }
    return 1;
}

static OSStatus vtCopySampleData(CMSampleBufferRef sb, uint8_t **out, size_t *outLen) {
    CMBlockBufferRef block = CMSampleBufferGetDataBuffer(sb);
    if (block == NULL) return -1;
    size_t total = CMBlockBufferGetDataLength(block);
    uint8_t *buf = (uint8_t *)malloc(total);
    if (buf == NULL) return kVTAllocationFailedErr;
    OSStatus st = CMBlockBufferCopyDataBytes(block, 0, total, buf);
    if (st != noErr) {
        free(buf);
        return st;
    }
    *out = buf;
    *outLen = total;
    return noErr;
}

static OSStatus vtCopyParameterSets(CMSampleBufferRef sb, uint8_t **sps, size_t *spsLen, uint8_t **pps, size_t *ppsLen) {
    CMFormatDescriptionRef fd = CMSampleBufferGetFormatDescription(sb);
    if (fd == NULL) return -1;

    size_t count = 0;
    OSStatus st = CMVideoFormatDescriptionGetH264ParameterSetAtIndex(fd, 0, NULL, NULL, &count, NULL);
    if (st != noErr) return st;

    for (size_t i = 0; i < count; i++) {
        const uint8_t *param = NULL;
        size_t size = 0;
        st = CMVideoFormatDescriptionGetH264ParameterSetAtIndex(fd, i, &param, &size, NULL, NULL);
        if (st != noErr || param == NULL || size == 0) continue;
        uint8_t nalType = param[0] & 0x1F;
        uint8_t **dst = NULL;
        size_t *dstLen = NULL;
        if (nalType == 7 && *sps == NULL) {
            dst = sps;
            dstLen = spsLen;
        } else if (nalType == 8 && *pps == NULL) {
            dst = pps;
            dstLen = ppsLen;
        }
        if (dst == NULL) continue;
        *dst = (uint8_t *)malloc(size);
        if (*dst == NULL) return kVTAllocationFailedErr;
        memcpy(*dst, param, size);
        *dstLen = size;
    }
    return (*sps != NULL && *pps != NULL) ? noErr : -1;
}

static void vtFree(void *p) {
    free(p);
}
*/
import "C"

import (
	"context"
	"fmt"
	"image"
	"runtime/cgo"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/image/draw"

	"github.com/user/h264session/pkg/avc"
	"github.com/user/h264session/pkg/ports"
	"github.com/user/h264session/pkg/settings"
)

// Available reports whether VideoToolbox can be used on this build.
func Available() bool {
	return true
}

var propertyIDs = map[ports.PropertyKey]C.int{
	ports.PropertyRealTime:                    C.PROP_REAL_TIME,
	ports.PropertyAllowFrameReordering:        C.PROP_ALLOW_FRAME_REORDERING,
	ports.PropertyProfileLevel:                C.PROP_PROFILE_LEVEL,
	ports.PropertyH264EntropyMode:             C.PROP_ENTROPY_MODE,
	ports.PropertyScalingMode:                 C.PROP_PIXEL_TRANSFER,
	ports.PropertyMaxKeyFrameInterval:         C.PROP_MAX_KEY_FRAME_INTERVAL,
	ports.PropertyMaxKeyFrameIntervalDuration: C.PROP_MAX_KEY_FRAME_INTERVAL_DURATION,
	ports.PropertyAverageBitRate:              C.PROP_AVERAGE_BIT_RATE,
	ports.PropertyExpectedFrameRate:           C.PROP_EXPECTED_FRAME_RATE,
	ports.PropertyDataRateLimits:              C.PROP_DATA_RATE_LIMITS,
}

var profileIDs = map[settings.ProfileLevel]C.int{
	settings.ProfileBaselineAutoLevel: 0,
	settings.ProfileBaseline31:        1,
	settings.ProfileMainAutoLevel:     2,
	settings.ProfileMain31:            3,
	settings.ProfileMain41:            4,
	settings.ProfileHighAutoLevel:     5,
	settings.ProfileHigh41:            6,
}

var scalingIDs = map[settings.ScalingMode]C.int{
	settings.ScalingNormal:                    0,
	settings.ScalingLetterbox:                 1,
	settings.ScalingTrim:                      2,
	settings.ScalingCropSourceToCleanAperture: 3,
}

func (s *Service) CreateSession(spec ports.SessionSpec) (ports.Session, error) {
	if spec.Output == nil {
		return nil, ErrNoOutput
	}

	sess := &Session{
		spec:   spec,
		log:    s.log,
		closed: make(chan struct{}),
	}
	sess.handle = cgo.NewHandle(sess)

	hw := C.int(0)
	if spec.PreferHardware {
		hw = 1
	}
	var ref C.VTCompressionSessionRef
	st := C.vtCreate(C.int(spec.Width), C.int(spec.Height), hw, C.uintptr_t(sess.handle), &ref)
	if st != 0 {
		sess.handle.Delete()
		return nil, &ports.StatusError{Op: "videotoolbox: create session", Status: ports.Status(int32(st))}
	}
	sess.ref = ref
	return sess, nil
}

// Session wraps a VTCompressionSession.
type Session struct {
	spec   ports.SessionSpec
	log    ports.Logger
	handle cgo.Handle

	mu        sync.Mutex
	ref       C.VTCompressionSessionRef
	closed    chan struct{}
	closeOnce sync.Once
}

type frameRef struct {
	pts      time.Duration
	duration time.Duration
}

func (s *Session) ID() ports.SessionID {
	return s.spec.ID
}

func (s *Session) SupportedProperties() []ports.PropertyKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ref == 0 {
		return nil
	}
	var keys []ports.PropertyKey
	for key, id := range propertyIDs {
		if C.vtSupportsProperty(s.ref, id) != 0 {
			keys = append(keys, key)
		}
	}
	return keys
}

func (s *Session) SetProperty(key ports.PropertyKey, value any) ports.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ref == 0 {
		return ports.StatusInvalidSession
	}

	id, ok := propertyIDs[key]
	if !ok {
		return ports.StatusPropertyNotSupported
	}

	var st C.OSStatus
	switch key {
	case ports.PropertyRealTime, ports.PropertyAllowFrameReordering:
		v, ok := value.(bool)
		if !ok {
			return ports.StatusParameter
		}
		b := C.int(0)
		if v {
			b = 1
		}
		st = C.vtSetBool(s.ref, id, b)
	case ports.PropertyProfileLevel:
		v, ok := value.(string)
		if !ok {
			return ports.StatusParameter
		}
		p, ok := profileIDs[settings.ProfileLevel(v)]
		if !ok {
			return ports.StatusParameter
		}
		st = C.vtSetProfileLevel(s.ref, p)
	case ports.PropertyH264EntropyMode:
		v, ok := value.(string)
		if !ok {
			return ports.StatusParameter
		}
		cabac := C.int(0)
		if settings.EntropyMode(v) == settings.EntropyCABAC {
			cabac = 1
		}
		st = C.vtSetEntropyMode(s.ref, cabac)
	case ports.PropertyScalingMode:
		v, ok := value.(string)
		if !ok {
			return ports.StatusParameter
		}
		m, ok := scalingIDs[settings.ScalingMode(v)]
		if !ok {
			return ports.StatusParameter
		}
		st = C.vtSetScalingMode(s.ref, m)
	case ports.PropertyMaxKeyFrameInterval, ports.PropertyAverageBitRate:
		v, ok := value.(int)
		if !ok {
			return ports.StatusParameter
		}
		st = C.vtSetInt(s.ref, id, C.int32_t(v))
	case ports.PropertyMaxKeyFrameIntervalDuration, ports.PropertyExpectedFrameRate:
		v, ok := value.(float64)
		if !ok {
			return ports.StatusParameter
		}
		st = C.vtSetDouble(s.ref, id, C.double(v))
	case ports.PropertyDataRateLimits:
		v, ok := value.([]float64)
		if !ok || len(v) != 2 {
			return ports.StatusParameter
		}
		st = C.vtSetDataRateLimits(s.ref, C.double(v[0]), C.double(v[1]))
	}
	return ports.Status(int32(st))
}

func (s *Session) Prepare() ports.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ref == 0 {
		return ports.StatusInvalidSession
	}
	return ports.Status(int32(C.vtPrepare(s.ref)))
}

func (s *Session) EncodeFrame(frame ports.FrameSubmission) (ports.Status, ports.EncodeInfoFlags) {
	if frame.Image == nil {
		return ports.StatusParameter, 0
	}
	rgba := toRGBA(frame.Image)
	b := rgba.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return ports.StatusParameter, 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ref == 0 {
		return ports.StatusInvalidSession, 0
	}

	h := cgo.NewHandle(&frameRef{pts: frame.PTS, duration: frame.Duration})
	force := C.int(0)
	if frame.ForceKeyFrame {
		force = 1
	}
	var info C.uint32_t
	st := C.vtEncodeRGBA(s.ref,
		(*C.uint8_t)(unsafe.Pointer(&rgba.Pix[0])),
		C.int(b.Dx()), C.int(b.Dy()), C.int(rgba.Stride),
		C.int64_t(frame.PTS.Nanoseconds()), C.int64_t(frame.Duration.Nanoseconds()),
		force, C.uintptr_t(h), &info)
	if st != 0 {
		// The callback never runs for a rejected frame.
		h.Delete()
	}
	return ports.Status(int32(st)), ports.EncodeInfoFlags(info)
}

func (s *Session) CompleteFrames(ctx context.Context) ports.Status {
	s.mu.Lock()
	ref := s.ref
	s.mu.Unlock()
	if ref == 0 {
		return ports.StatusInvalidSession
	}

	done := make(chan C.OSStatus, 1)
	go func() {
		done <- C.vtComplete(ref)
	}()
	select {
	case st := <-done:
		return ports.Status(int32(st))
	case <-ctx.Done():
		return ports.StatusEncoderMalfunction
	}
}

func (s *Session) Invalidate() {
	s.closeOnce.Do(func() {
		close(s.closed)

		s.mu.Lock()
		ref := s.ref
		s.ref = 0
		s.mu.Unlock()

		if ref != 0 {
			// Invalidation waits for in-flight callbacks, which return
			// promptly once closed is closed.
			C.vtInvalidate(ref)
		}
		s.handle.Delete()
	})
}

func (s *Session) emit(out ports.EncodedOutput) {
	select {
	case s.spec.Output <- out:
	case <-s.closed:
	}
}

func (s *Session) String() string {
	return fmt.Sprintf("videotoolbox session %d (%dx%d)", s.spec.ID, s.spec.Width, s.spec.Height)
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Copy(rgba, image.Point{}, img, b, draw.Src, nil)
	return rgba
}

//export goVTCompressionOutputCallback
func goVTCompressionOutputCallback(outputCallbackRefCon C.uintptr_t, sourceFrameRefCon C.uintptr_t, status C.int32_t, infoFlags C.uint32_t, sampleBuffer C.CMSampleBufferRef) {
	var ref frameRef
	if sourceFrameRefCon != 0 {
		h := cgo.Handle(uintptr(sourceFrameRefCon))
		if r, ok := h.Value().(*frameRef); ok {
			ref = *r
		}
		h.Delete()
	}
	if outputCallbackRefCon == 0 {
		return
	}
	s, ok := cgo.Handle(uintptr(outputCallbackRefCon)).Value().(*Session)
	if !ok {
		return
	}

	out := ports.EncodedOutput{
		SessionID: s.spec.ID,
		Status:    ports.Status(int32(status)),
		Flags:     ports.EncodeInfoFlags(infoFlags),
	}
	if status != 0 || sampleBuffer == 0 {
		s.emit(out)
		return
	}

	var dataPtr *C.uint8_t
	var dataLen C.size_t
	if st := C.vtCopySampleData(sampleBuffer, &dataPtr, &dataLen); st != 0 {
		out.Status = ports.StatusEncoderMalfunction
		s.emit(out)
		return
	}
	avcc := C.GoBytes(unsafe.Pointer(dataPtr), C.int(dataLen))
	C.vtFree(unsafe.Pointer(dataPtr))

	sample := &ports.CompressedSample{
		Data:     avc.FromAVCC(avcc),
		PTS:      ref.pts,
		DTS:      ref.pts,
		Duration: ref.duration,
		Keyframe: C.vtSampleIsKeyframe(sampleBuffer) != 0,
	}

	if sample.Keyframe {
		var spsPtr, ppsPtr *C.uint8_t
		var spsLen, ppsLen C.size_t
		st := C.vtCopyParameterSets(sampleBuffer, &spsPtr, &spsLen, &ppsPtr, &ppsLen)
		if spsPtr != nil {
			defer C.vtFree(unsafe.Pointer(spsPtr))
		}
		if ppsPtr != nil {
			defer C.vtFree(unsafe.Pointer(ppsPtr))
		}
		if st == 0 {
			sps := C.GoBytes(unsafe.Pointer(spsPtr), C.int(spsLen))
			pps := C.GoBytes(unsafe.Pointer(ppsPtr), C.int(ppsLen))
			// Parameter sets lead key frames so the stream is decodable mid-way.
			sample.Data = append(avc.JoinAnnexB(sps, pps), sample.Data...)
			if format, err := avc.FormatFromParameterSets(sps, pps); err == nil {
				sample.Format = format
			} else {
				s.log.Debug("Ignoring format of session %d: %v", s.spec.ID, err)
			}
		}
	}

	out.Sample = sample
	s.emit(out)
}
