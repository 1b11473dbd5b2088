package bot

// User-facing notices. They never carry internal identifiers beyond what the user typed.
const (
	msgOrderNotFound      = "❌ Nie znaleziono zamówienia o kodzie **%s**. Upewnij się, że kod jest poprawny."
	msgOrderVerified      = "⚠️ To zamówienie (**%s**) zostało już zweryfikowane."
	msgOrderRejected      = "⚠️ To zamówienie (**%s**) zostało odrzucone i nie może być ponownie zweryfikowane."
	msgOrderInProgress    = "♻️ Zamówienie jest przetwarzane! Sprawdź kanał."
	msgRedemptionFailed   = "🔥 Wystąpił błąd podczas tworzenia ticketa. Spróbuj ponownie później."
	msgAdminOnly          = "❌ Ta komenda jest zarezerwowana dla administracji!"
	msgTicketOnly         = "❌ Ta komenda działa tylko na kanałach zamówień!"
	msgTicketOnlyOutcome  = "❌ Ta komenda działa tylko w ticketach zamówień."
	msgButtonAdminOnly    = "❌ Tylko administracja może przejmować lub odrzucać zgłoszenia!"
	msgInteractionFailed  = "❌ Błąd."
	msgAlreadyProcessed   = "⚠️ To zamówienie zostało już przetworzone (status: **%s**)."
	msgClaimed            = "✅ Zgłoszenie przyjęte przez %s."
	msgRejected           = "⛔ Zgłoszenie odrzucone przez %s."
	msgOutcomeNotFound    = "❌ Nie znaleziono zamówienia o ID `%s` w bazie danych."
	msgOutcomeFailed      = "❌ Błąd bazy danych (czy ID zamówienia w nazwie kanału jest poprawne?)."
	msgSuccessFollowup    = "✅ Transakcja zakończona sukcesem."
	msgFailureFollowup    = "⚠️ Transakcja oznaczona jako nieudana."
	msgXPAwarded          = "⭐ Przyznano **%d XP** użytkownikowi za ten zakup!"
	msgCustomerMissing    = "❌ Nie znaleziono ID klienta w temacie kanału."
	msgBackupStarted      = "⏳ Generowanie backupu rozmowy..."
	msgBackupDM           = "📦 **Witaj!** Przesyłamy kopię Twojej rozmowy z kanału **%s**. Dziękujemy za zaufanie!"
	msgBackupSent         = "✅ Backup został wysłany do klienta na DM!"
	msgBackupFallback     = "❌ Nie udało się wysłać backupu do klienta (zablokowane DM). Wysyłam tutaj:"
	msgBackupFailed       = "🔥 Błąd podczas generowania backupu."
	msgSummonDM           = "🔔 **%s** użył !wezwij - **Staw się na ticketa!**\n\nAdministrator potrzebuje Twojej uwagi na kanale zamówienia."
	msgSummonSent         = "✅ Wysłano wezwanie do klienta!"
	msgSummonBlocked      = "❌ Nie udało się wysłać wiadomości do klienta (zablokowane DM)."
	msgClosing            = "🔒 Zamykanie ticketa..."
	msgPaymentDataMissing = "❌ Nie udało się odczytać danych zamówienia. Upewnij się, że wiadomość z danymi zamówienia znajduje się na tym kanale."
	msgPaymentFailed      = "🔥 Błąd podczas pobierania danych płatności."
	msgNoPermission       = "❌ Nie masz uprawnień!"
	msgAnnUsage           = "❌ Użycie: `!ogloszenie (treść) (id)`. Przykład: `!ogloszenie Zapraszamy do zakupów! promo1`"
	msgAnnDeleteUsage     = "❌ Podaj ID ogłoszenia do usunięcia. Przykład: `!ogloszenie usun shop-info`"
	msgAnnNotFound        = "❌ Nie znaleziono ogłoszenia o ID `%s`."
	msgAnnDeleted         = "✅ Ogłoszenie `%s` zostało usunięte."
	msgAnnDeleteFailed    = "🔥 Błąd podczas usuwania ogłoszenia."
	msgAnnChannelMissing  = "❌ Kanał ogłoszeń nie jest skonfigurowany (ANN_CHANNEL_ID)."
	msgAnnPosted          = "✅ Ogłoszenie zostało wysłane i zapisane pod ID: `%s`"
	msgAnnFailed          = "🔥 Błąd podczas wysyłania ogłoszenia."
	msgRulesChannelUnset  = "❌ RULES_CHANNEL_ID not set."
	msgLinksChannelUnset  = "❌ LINKS_CHANNEL_ID not set."
	msgRulesPosted        = "✅ Rules posted!"
	msgLinksPosted        = "✅ Links posted!"
)
